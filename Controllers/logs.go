package Controllers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/Barrelito/sam-a-sub001/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// LogGroup represents a group of logs by method and path
type LogGroup struct {
	Path        string  `json:"path"`
	Method      string  `json:"method"`
	Count       int     `json:"count"`
	AvgLatency  float64 `json:"avg_latency_ms"`
	MaxLatency  float64 `json:"max_latency_ms"`
	SuccessRate float64 `json:"success_rate"`
}

// LogController reads the request log written by middleware.RequestLogger
type LogController struct {
	LogFile string
	Now     func() time.Time
}

// NewLogController creates a new LogController
func NewLogController(logFile string) *LogController {
	return &LogController{LogFile: logFile, Now: time.Now}
}

// GetLogs returns filtered request log entries, newest first, paginated
func (c *LogController) GetLogs(ctx *fiber.Ctx) error {
	from, to, err := c.dateRange(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	entries, err := readLogFile(c.LogFile, from, to)
	if err != nil {
		return respondError(ctx, err)
	}
	entries = filterLogs(entries, ctx.Query("path"), ctx.Query("method"), ctx.Query("status"))
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	total := len(entries)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return ctx.JSON(fiber.Map{
		"logs":        entries[start:end],
		"total_logs":  total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + pageSize - 1) / pageSize,
		"date_from":   from,
		"date_to":     to,
	})
}

// GetLogStats groups the range by method and path
func (c *LogController) GetLogStats(ctx *fiber.Ctx) error {
	from, to, err := c.dateRange(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	entries, err := readLogFile(c.LogFile, from, to)
	if err != nil {
		return respondError(ctx, err)
	}

	errorsCount := 0
	for _, e := range entries {
		if e.Status >= 400 {
			errorsCount++
		}
	}

	return ctx.JSON(fiber.Map{
		"total_requests": len(entries),
		"error_requests": errorsCount,
		"groups":         groupLogs(entries),
		"date_from":      from,
		"date_to":        to,
	})
}

// dateRange parses date_from/date_to (YYYY-MM-DD); both empty means today
func (c *LogController) dateRange(ctx *fiber.Ctx) (time.Time, time.Time, error) {
	now := c.Now()
	fromStr, toStr := ctx.Query("date_from"), ctx.Query("date_to")
	if fromStr == "" && toStr == "" {
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return from, from.Add(24*time.Hour - time.Nanosecond), nil
	}

	from := time.Unix(0, 0).UTC()
	if fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, AppErrors.Validation("date_from", "Invalid date_from format. Use YYYY-MM-DD")
		}
		from = parsed
	}
	to := now
	if toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, AppErrors.Validation("date_to", "Invalid date_to format. Use YYYY-MM-DD")
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}

// readLogFile loads entries within [from, to]; a missing file is empty
func readLogFile(path string, from, to time.Time) ([]middleware.LogData, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return []middleware.LogData{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open request log")
	}
	defer file.Close()

	entries := []middleware.LogData{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry middleware.LogData
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Timestamp.Before(from) || entry.Timestamp.After(to) {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read request log")
	}
	return entries, nil
}

func filterLogs(entries []middleware.LogData, path, method, status string) []middleware.LogData {
	wantStatus, statusErr := strconv.Atoi(status)
	filtered := entries[:0]
	for _, e := range entries {
		if path != "" && !strings.Contains(strings.ToLower(e.Path), strings.ToLower(path)) {
			continue
		}
		if method != "" && !strings.EqualFold(e.Method, method) {
			continue
		}
		if status != "" && statusErr == nil && e.Status != wantStatus {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func groupLogs(entries []middleware.LogData) []LogGroup {
	byKey := make(map[string]*LogGroup)
	successes := make(map[string]int)
	for _, e := range entries {
		key := fmt.Sprintf("%s %s", e.Method, e.Path)
		g, ok := byKey[key]
		if !ok {
			g = &LogGroup{Path: e.Path, Method: e.Method}
			byKey[key] = g
		}
		latency := float64(e.Latency.Microseconds()) / 1000.0
		g.AvgLatency = (g.AvgLatency*float64(g.Count) + latency) / float64(g.Count+1)
		g.Count++
		if latency > g.MaxLatency {
			g.MaxLatency = latency
		}
		if e.Status >= 200 && e.Status < 300 {
			successes[key]++
		}
	}

	groups := make([]LogGroup, 0, len(byKey))
	for key, g := range byKey {
		g.SuccessRate = float64(successes[key]) / float64(g.Count)
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Path < groups[j].Path
	})
	return groups
}
