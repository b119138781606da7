package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kebbi/internal/domain"
)

// Digest summarizes what was logged on one day.
type Digest struct {
	Date      string
	Items     []domain.ItemRecord
	Schedules []domain.ScheduleRecord
	Chats     int
}

// BuildDigest collects the records whose timestamp falls on day.
func (s *Service) BuildDigest(ctx context.Context, day time.Time) Digest {
	date := day.Format("2006-01-02")
	d := Digest{Date: date}

	for _, it := range s.logs.Items.Load(ctx) {
		if strings.HasPrefix(it.Timestamp, date) {
			d.Items = append(d.Items, it)
		}
	}
	for _, sc := range s.logs.Schedules.Load(ctx) {
		if strings.HasPrefix(sc.Timestamp, date) {
			d.Schedules = append(d.Schedules, sc)
		}
	}
	for _, c := range s.logs.Chats.Load(ctx) {
		if strings.HasPrefix(c.Timestamp, date) {
			d.Chats++
		}
	}
	return d
}

func (d Digest) Empty() bool {
	return len(d.Items) == 0 && len(d.Schedules) == 0 && d.Chats == 0
}

// Summary renders the digest as a short report.
func (d Digest) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s 的紀錄整理\n", d.Date)
	fmt.Fprintf(&b, "聊天 %d 則，物品 %d 筆，行程 %d 筆\n", d.Chats, len(d.Items), len(d.Schedules))

	if len(d.Items) > 0 {
		b.WriteString("\n物品：\n")
		for _, it := range d.Items {
			fmt.Fprintf(&b, "- %s的%s在%s\n", it.Owner, it.Item, it.Location)
		}
	}

	if len(d.Schedules) > 0 {
		b.WriteString("\n行程：\n")
		for _, sc := range d.Schedules {
			line := sc.Task
			if sc.Time != "" {
				line = sc.Time + " " + line
			}
			if sc.Place != "" {
				line += "（" + sc.Place + "）"
			}
			if sc.Person != "" {
				line += "，和" + sc.Person
			}
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
