// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package autosnapshots

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/stratastor/burrow/internal/store"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/common"
	"golang.org/x/exp/slices"
)

const (
	namePrefix     = "auto-"
	nameTimeLayout = "20060102.1504"
	clockLayout    = "15:04"
)

// Intervals are the supported periods in minutes, from five minutes to
// four weeks.
var Intervals = []int{5, 10, 15, 30, 60, 120, 180, 240, 360, 720, 1440, 10080, 20160, 40320}

// Retention units and the suffix letter each one leaves in snapshot names.
var retentionUnits = map[string]byte{
	"hour":  'h',
	"day":   'd',
	"week":  'w',
	"month": 'm',
	"year":  'y',
}

// auto-20261016.1200-2w
var autoName = regexp.MustCompile(`^auto-(\d{8}\.\d{4})-(\d+)([hdwmy])$`)

// Normalize fills the defaults of t and rejects invalid schedules.
func Normalize(t *store.SnapshotTask) error {
	if err := common.DatasetNameCheck(t.Dataset); err != nil {
		return errors.Wrap(err, errors.SnapshotTaskInvalid).WithMetadata("dataset", t.Dataset)
	}
	if !slices.Contains(Intervals, t.Interval) {
		return errors.New(errors.SnapshotTaskInvalid,
			fmt.Sprintf("unsupported interval %d minutes", t.Interval))
	}
	if _, ok := retentionUnits[t.RetUnit]; !ok {
		return errors.New(errors.SnapshotTaskInvalid, "unsupported retention unit "+t.RetUnit)
	}
	if t.RetCount <= 0 {
		return errors.New(errors.SnapshotTaskInvalid, "ret_count must be positive")
	}

	if t.Begin == "" {
		t.Begin = "00:00"
	}
	if t.End == "" {
		t.End = "23:59"
	}
	begin, err := time.Parse(clockLayout, t.Begin)
	if err != nil {
		return errors.New(errors.SnapshotTaskInvalid, "begin must be HH:MM")
	}
	end, err := time.Parse(clockLayout, t.End)
	if err != nil {
		return errors.New(errors.SnapshotTaskInvalid, "end must be HH:MM")
	}
	if end.Before(begin) {
		return errors.New(errors.SnapshotTaskInvalid, "end is before begin")
	}

	if len(t.Weekdays) == 0 {
		t.Weekdays = []int{1, 2, 3, 4, 5, 6, 7}
	}
	for _, d := range t.Weekdays {
		if d < 1 || d > 7 {
			return errors.New(errors.SnapshotTaskInvalid, "weekdays range from 1 (Monday) to 7 (Sunday)")
		}
	}
	slices.Sort(t.Weekdays)
	t.Weekdays = slices.Compact(t.Weekdays)
	return nil
}

// retentionSuffix is the "-2w" tail shared by every snapshot of t.
func retentionSuffix(t store.SnapshotTask) string {
	return "-" + strconv.Itoa(t.RetCount) + string(retentionUnits[t.RetUnit])
}

// SnapshotName names the snapshot t takes at now.
func SnapshotName(t store.SnapshotTask, now time.Time) string {
	return namePrefix + now.Format(nameTimeLayout) + retentionSuffix(t)
}

// Expiry returns when an automatic snapshot called name expires. ok is false
// for names not produced by a periodic task.
func Expiry(name string, loc *time.Location) (time.Time, bool) {
	m := autoName.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	taken, err := time.ParseInLocation(nameTimeLayout, m[1], loc)
	if err != nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, false
	}

	switch m[3] {
	case "h":
		return taken.Add(time.Duration(n) * time.Hour), true
	case "d":
		return taken.AddDate(0, 0, n), true
	case "w":
		return taken.AddDate(0, 0, 7*n), true
	case "m":
		return taken.AddDate(0, n, 0), true
	default:
		return taken.AddDate(n, 0, 0), true
	}
}

// InWindow reports whether now falls on one of the task's weekdays between
// its begin and end times, both inclusive.
func InWindow(t store.SnapshotTask, now time.Time) bool {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	if !slices.Contains(t.Weekdays, weekday) {
		return false
	}
	clock := now.Format(clockLayout)
	return clock >= t.Begin && clock <= t.End
}
