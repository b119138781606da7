package domain

// DefaultOwner is stored when the extraction does not name an owner.
const DefaultOwner = "我"

type ChatLogEntry struct {
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Response  string `json:"response"`
}

type ItemRecord struct {
	Item      string `json:"item"`
	Location  string `json:"location"`
	Owner     string `json:"owner"`
	Timestamp string `json:"timestamp"`
}

type ScheduleRecord struct {
	Task      string `json:"task"`
	Location  string `json:"location"`
	Place     string `json:"place"`
	Time      string `json:"time"`
	Person    string `json:"person"`
	Timestamp string `json:"timestamp"`
}
