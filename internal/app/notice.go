package app

import "sync"

// NoticeKind classifies a user notice.
type NoticeKind string

const (
	NoticeInfo       NoticeKind = "info"
	NoticeValidation NoticeKind = "validation"
	NoticeError      NoticeKind = "error"
)

// User-facing notice texts. Errors never carry the cause.
const (
	MsgTaskAdded    = "Task added!"
	MsgTaskUpdated  = "Task updated!"
	MsgTaskDeleted  = "Task deleted!"
	MsgFillRequired = "Please fill in both title and description!"
	MsgSaveFailed   = "Error saving task!"
	MsgDeleteFailed = "Error deleting task!"
	MsgLoadFailed   = "Error loading tasks!"
	MsgUploadFailed = "File upload failed!"
	MsgUnknownTask  = "Task no longer exists!"
)

// Notice is a message for the user.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
}

// Notifier receives notices.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Notices queues notices until drained. The zero value is ready to use.
type Notices struct {
	mu    sync.Mutex
	queue []Notice
}

func (q *Notices) Notify(n Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append(q.queue, n)
}

// Drain returns and clears the queued notices.
func (q *Notices) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.queue
	q.queue = nil
	return out
}

// Pending returns the queued notices without clearing them.
func (q *Notices) Pending() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Notice(nil), q.queue...)
}
