package models

import "time"

// Task represents a single card on the mission board.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Assignee    string     `json:"assignee,omitempty"`
	Order       int64      `json:"order"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Prompt      string     `json:"prompt,omitempty"`
	AIStatus    string     `json:"aiStatus,omitempty"`
	AIResult    string     `json:"aiResult,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Event is a calendar entry. Recurring is a human-readable label and is
// never evaluated by the server.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Category    string    `json:"category"`
	Color       string    `json:"color"`
	Assignee    string    `json:"assignee,omitempty"`
	Status      string    `json:"status,omitempty"`
	Recurring   string    `json:"recurring,omitempty"`
	CreatedBy   *int64    `json:"createdBy,omitempty"`
	Creator     *Member   `json:"creator,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Note holds a markdown document in the knowledge base. Tags preserve
// order and may repeat.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedBy *int64    `json:"createdBy,omitempty"`
	Creator   *Member   `json:"creator,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TagCount is one row of the tag-frequency aggregation.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ContentItem is a card in the production pipeline.
type ContentItem struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Type         string     `json:"type"`
	Stage        string     `json:"stage"`
	Description  string     `json:"description,omitempty"`
	Script       string     `json:"script,omitempty"`
	ThumbnailURL string     `json:"thumbnailUrl,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Assignee     string     `json:"assignee,omitempty"`
	Order        int64      `json:"order"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ContentStats summarizes the pipeline for the dashboard header.
type ContentStats struct {
	Total   int            `json:"total"`
	ByStage map[string]int `json:"byStage"`
	ByType  map[string]int `json:"byType"`
	Overdue int            `json:"overdue"`
}

// Member is a person or agent on the team roster.
type Member struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar,omitempty"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	Bio        string    `json:"bio,omitempty"`
	LastActive time.Time `json:"lastActive"`
	JoinedAt   time.Time `json:"joinedAt"`
	Metrics    *Metrics  `json:"metrics,omitempty"`
}

// Metrics tracks per-member performance counters, one row per member.
type Metrics struct {
	MemberID       int64     `json:"memberId"`
	TasksCompleted int64     `json:"tasksCompleted"`
	ContentCreated int64     `json:"contentCreated"`
	WeeklyGoal     int64     `json:"weeklyGoal"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// DeskPosition places a member in the virtual office, one row per member.
type DeskPosition struct {
	MemberID           int64     `json:"memberId"`
	DeskNumber         int64     `json:"deskNumber"`
	X                  float64   `json:"x"`
	Y                  float64   `json:"y"`
	CurrentActivity    string    `json:"currentActivity,omitempty"`
	CurrentTask        string    `json:"currentTask,omitempty"`
	LastActivityUpdate time.Time `json:"lastActivityUpdate"`
	Member             *Member   `json:"member,omitempty"`
}

// ActivityLog records an office animation event for a member.
type ActivityLog struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"memberId"`
	Activity    string    `json:"activity"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ValidTaskStatuses enumerates the statuses supported by the board columns.
var ValidTaskStatuses = map[string]struct{}{
	"todo":       {},
	"inprogress": {},
	"done":       {},
}

// ValidPriorities enumerates task priorities.
var ValidPriorities = map[string]struct{}{
	"high":   {},
	"medium": {},
	"low":    {},
}

// ValidAIStatuses enumerates the AI queue states. "pending" marks a task
// waiting to be claimed by the external agent runner.
var ValidAIStatuses = map[string]struct{}{
	"idle":      {},
	"pending":   {},
	"running":   {},
	"completed": {},
	"failed":    {},
}

// ValidEventCategories enumerates calendar categories.
var ValidEventCategories = map[string]struct{}{
	"task":      {},
	"cron":      {},
	"meeting":   {},
	"reminder":  {},
	"milestone": {},
}

// ValidEventStatuses enumerates the optional event execution states.
var ValidEventStatuses = map[string]struct{}{
	"scheduled": {},
	"running":   {},
	"completed": {},
	"failed":    {},
}

// ValidContentTypes enumerates the content formats in the pipeline.
var ValidContentTypes = map[string]struct{}{
	"blog":    {},
	"tweet":   {},
	"video":   {},
	"article": {},
	"podcast": {},
}

// ValidContentStages enumerates the pipeline columns.
var ValidContentStages = map[string]struct{}{
	"idea":      {},
	"draft":     {},
	"review":    {},
	"published": {},
}

// ValidMemberStatuses enumerates roster presence states.
var ValidMemberStatuses = map[string]struct{}{
	"online":  {},
	"busy":    {},
	"away":    {},
	"offline": {},
}

// AIAssignee is the assignee tag that routes a task to the agent runner.
const AIAssignee = "ai"
