package workouts

import (
	"fmt"
	"sort"
	"time"
)

// Weekdays is the fixed row order of the volume heatmap.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type ProgressPoint struct {
	Date         string  `json:"date"`
	ExerciseName string  `json:"exerciseName"`
	Value        float64 `json:"value"`
}

// ProgressView keeps the maximum metric value per (date, exercise), sorted by
// date then exercise name. With no exercises given, all are included.
func ProgressView(entries []Entry, metric Metric, exercises ...string) []ProgressPoint {
	wanted := make(map[string]bool, len(exercises))
	for _, name := range exercises {
		wanted[name] = true
	}

	type key struct {
		date time.Time
		name string
	}
	maxByKey := map[key]float64{}
	for _, e := range entries {
		if len(wanted) > 0 && !wanted[e.ExerciseName] {
			continue
		}
		k := key{date: e.Date, name: e.ExerciseName}
		value := metric.Value(e)
		if current, ok := maxByKey[k]; !ok || value > current {
			maxByKey[k] = value
		}
	}

	keys := make([]key, 0, len(maxByKey))
	for k := range maxByKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].date.Equal(keys[j].date) {
			return keys[i].date.Before(keys[j].date)
		}
		return keys[i].name < keys[j].name
	})

	points := make([]ProgressPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, ProgressPoint{
			Date:         k.date.Format(dateLayout),
			ExerciseName: k.name,
			Value:        maxByKey[k],
		})
	}
	return points
}

// WeekLabel formats the ISO week as "<week>-<two digit ISO year>", e.g. "1-24".
func WeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-%02d", week, year%100)
}

// weekdayIndex maps Monday to 0 and Sunday to 6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

type HeatmapCell struct {
	Week string `json:"week"`
	Day  string `json:"day"`
	Reps int    `json:"reps"`
}

type Heatmap struct {
	// Weeks are ordered by the earliest date seen in each week.
	Weeks []string      `json:"weeks"`
	Days  []string      `json:"days"`
	Cells []HeatmapCell `json:"cells"`
}

// VolumeHeatmap sums reps per (ISO week, weekday). Empty cells are omitted.
func VolumeHeatmap(entries []Entry) Heatmap {
	type key struct {
		week string
		day  int
	}
	reps := map[key]int{}
	firstSeen := map[string]time.Time{}
	for _, e := range entries {
		week := WeekLabel(e.Date)
		reps[key{week: week, day: weekdayIndex(e.Date)}] += e.Reps
		if first, ok := firstSeen[week]; !ok || e.Date.Before(first) {
			firstSeen[week] = e.Date
		}
	}

	weeks := make([]string, 0, len(firstSeen))
	for week := range firstSeen {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool {
		return firstSeen[weeks[i]].Before(firstSeen[weeks[j]])
	})

	heatmap := Heatmap{
		Weeks: weeks,
		Days:  Weekdays[:],
		Cells: make([]HeatmapCell, 0, len(reps)),
	}
	for _, week := range weeks {
		for day, dayName := range Weekdays {
			total, ok := reps[key{week: week, day: day}]
			if !ok {
				continue
			}
			heatmap.Cells = append(heatmap.Cells, HeatmapCell{
				Week: week,
				Day:  dayName,
				Reps: total,
			})
		}
	}
	return heatmap
}

// ExerciseNames returns the distinct exercise names, sorted.
func ExerciseNames(entries []Entry) []string {
	seen := map[string]bool{}
	var names []string
	for _, e := range entries {
		if !seen[e.ExerciseName] {
			seen[e.ExerciseName] = true
			names = append(names, e.ExerciseName)
		}
	}
	sort.Strings(names)
	return names
}

// PreviousBests is what the recorder shows next to a draft row.
// Nil fields mean the exercise has no history.
type PreviousBests struct {
	ExerciseName  string   `json:"exerciseName"`
	BestOneRepMax *float64 `json:"bestOneRepMax"`
	MaxWeight     *float64 `json:"maxWeight"`
}

// LookupPreviousBests scans all entries, hidden exercises included.
func LookupPreviousBests(entries []Entry, exerciseName string) PreviousBests {
	bests := PreviousBests{ExerciseName: exerciseName}
	for _, e := range entries {
		if e.ExerciseName != exerciseName {
			continue
		}
		if bests.BestOneRepMax == nil || e.OneRepMax > *bests.BestOneRepMax {
			v := e.OneRepMax
			bests.BestOneRepMax = &v
		}
		if bests.MaxWeight == nil || e.Weight > *bests.MaxWeight {
			v := e.Weight
			bests.MaxWeight = &v
		}
	}
	return bests
}
