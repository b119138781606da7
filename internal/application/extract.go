package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"kebbi/internal/domain"
)

var errMissingField = errors.New("missing required field")

type itemExtraction struct {
	Item     string `json:"item"`
	Location string `json:"location"`
	Owner    string `json:"owner"`
}

type scheduleExtraction struct {
	Task     string `json:"task"`
	Location string `json:"location"`
	Place    string `json:"place"`
	Time     string `json:"time"`
	Person   string `json:"person"`
}

// stripCodeFence removes Markdown fences and a leading json language tag.
func stripCodeFence(reply string) string {
	s := strings.TrimSpace(reply)
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	return strings.TrimSpace(s)
}

// decodeStrict accepts exactly one JSON object whose keys all belong to v.
func decodeStrict(reply string, v any) error {
	dec := json.NewDecoder(strings.NewReader(stripCodeFence(reply)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding extraction: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("decoding extraction: trailing data after object")
	}
	return nil
}

func parseItem(reply string) (domain.ItemRecord, error) {
	var x itemExtraction
	if err := decodeStrict(reply, &x); err != nil {
		return domain.ItemRecord{}, err
	}

	rec := domain.ItemRecord{
		Item:     strings.TrimSpace(x.Item),
		Location: strings.TrimSpace(x.Location),
		Owner:    strings.TrimSpace(x.Owner),
	}
	if rec.Item == "" {
		return domain.ItemRecord{}, fmt.Errorf("%w: item", errMissingField)
	}
	if rec.Location == "" {
		return domain.ItemRecord{}, fmt.Errorf("%w: location", errMissingField)
	}
	if rec.Owner == "" {
		rec.Owner = domain.DefaultOwner
	}
	return rec, nil
}

func parseSchedule(reply string) (domain.ScheduleRecord, error) {
	var x scheduleExtraction
	if err := decodeStrict(reply, &x); err != nil {
		return domain.ScheduleRecord{}, err
	}

	rec := domain.ScheduleRecord{
		Task:     strings.TrimSpace(x.Task),
		Location: strings.TrimSpace(x.Location),
		Place:    strings.TrimSpace(x.Place),
		Time:     strings.TrimSpace(x.Time),
		Person:   strings.TrimSpace(x.Person),
	}
	if rec.Task == "" {
		return domain.ScheduleRecord{}, fmt.Errorf("%w: task", errMissingField)
	}
	return rec, nil
}
