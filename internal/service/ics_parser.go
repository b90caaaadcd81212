package service

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"berkeleyfind/backend/internal/model"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将 iCalendar (RFC 5545) 课表 / 日程解析为每周固定的学习时段。
//
//   - DTSTART/DTEND 确定星期与起止时间，统一换算到校区时区
//   - 没有 DTEND 时按 DURATION 推算结束时间，两者都缺失的事件忽略
//   - RRULE 为 WEEKLY 且带 BYDAY 时，每个 BYDAY 各生成一个时段
//   - 全天事件、跨天事件忽略
//   - 相同 day+start+end 的时段去重，结果按星期、开始时间排序
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize = 5 * 1024 * 1024 // 5MB
	campusTimezone = "America/Los_Angeles"
)

// RFC 5545 dur-value，如 PT1H30M、P1DT2H、P2W
var icsDurationPattern = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

var icsWeekdays = map[string]int{
	"MO": 1, "TU": 2, "WE": 3, "TH": 4, "FR": 5, "SA": 6, "SU": 7,
}

// ParseStudyTimesICS 解析 ICS 内容为每周学习时段
// 超过 5MB 的文件返回 ErrICSTooLarge，不做截断解析
func ParseStudyTimesICS(reader io.Reader) ([]model.StudyTimeSlot, error) {
	data, err := io.ReadAll(io.LimitReader(reader, icsMaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("读取 ICS 内容失败: %w", err)
	}
	if len(data) > icsMaxFileSize {
		return nil, ErrICSTooLarge
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	loc, err := time.LoadLocation(campusTimezone)
	if err != nil {
		loc = time.UTC
	}

	seen := make(map[model.StudyTimeSlot]bool)
	var slots []model.StudyTimeSlot
	for _, evt := range cal.Events() {
		for _, slot := range parseVEvent(evt, loc) {
			if seen[slot] {
				continue
			}
			seen[slot] = true
			slots = append(slots, slot)
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].EndTime < slots[j].EndTime
	})
	return slots, nil
}

// parseVEvent 解析单个 VEVENT，可能展开为多个星期
func parseVEvent(evt *ics.VEvent, loc *time.Location) []model.StudyTimeSlot {
	dtStart, allDay, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil || allDay {
		return nil
	}
	dtEnd, _, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		prop := evt.GetProperty(ics.ComponentPropertyDuration)
		if prop == nil {
			return nil
		}
		d, err := parseICSDuration(prop.Value)
		if err != nil {
			return nil
		}
		dtEnd = dtStart.Add(d)
	}

	// 跨天或非正时长的事件无法表示为单日时段
	if !dtEnd.After(dtStart) || dtEnd.Format("20060102") != dtStart.Format("20060102") {
		return nil
	}

	startTime := dtStart.Format("15:04")
	endTime := dtEnd.Format("15:04")

	days := []int{goWeekdayToISO(dtStart.Weekday())}
	if rrule := evt.GetProperty(ics.ComponentPropertyRrule); rrule != nil {
		if byDay := parseRRuleByDay(rrule.Value); len(byDay) > 0 {
			days = byDay
		}
	}

	slots := make([]model.StudyTimeSlot, 0, len(days))
	for _, d := range days {
		slots = append(slots, model.StudyTimeSlot{DayOfWeek: d, StartTime: startTime, EndTime: endTime})
	}
	return slots
}

// parseRRuleByDay 提取 FREQ=WEEKLY 规则中的 BYDAY（如 MO,WE,FR）
func parseRRuleByDay(value string) []int {
	var weekly bool
	var days []int
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "FREQ":
			weekly = strings.ToUpper(kv[1]) == "WEEKLY"
		case "BYDAY":
			for _, token := range strings.Split(kv[1], ",") {
				token = strings.ToUpper(strings.TrimSpace(token))
				// 忽略序数前缀（如 1MO）
				if len(token) > 2 {
					token = token[len(token)-2:]
				}
				if d, ok := icsWeekdays[token]; ok {
					days = append(days, d)
				}
			}
		}
	}
	if !weekly {
		return nil
	}
	return days
}

// parseICSDuration 解析 DURATION 属性值
func parseICSDuration(value string) (time.Duration, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	m := icsDurationPattern.FindStringSubmatch(value)
	if m == nil || value == "P" || strings.HasSuffix(value, "T") {
		return 0, fmt.Errorf("无法解析时长: %s", value)
	}

	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var total time.Duration
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return 0, fmt.Errorf("无法解析时长: %s", value)
		}
		total += time.Duration(n) * unit
	}
	if m[1] == "-" {
		total = -total
	}
	return total, nil
}

// goWeekdayToISO 将 Go 的 time.Weekday (0=Sunday) 转为 ISO 8601 (1=Monday … 7=Sunday)
func goWeekdayToISO(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// parseICSDateTime 解析日期时间属性；第二个返回值表示是否为全天（仅日期）
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, bool, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("missing property %s", propName)
	}
	val := strings.TrimSpace(prop.Value)

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			tzid = v[0]
		}
	}

	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return t.In(loc), false, nil
	}
	if t, err := time.Parse("20060102T150405", val); err == nil {
		src := loc
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				src = tzLoc
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, src).In(loc), false, nil
	}
	if t, err := time.Parse("20060102", val); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true, nil
	}
	return time.Time{}, false, fmt.Errorf("无法解析日期: %s", val)
}
