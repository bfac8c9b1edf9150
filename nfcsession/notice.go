package nfcsession

import (
	"log"
	"sync"
)

// Notice is a one-shot message shown to the user.
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var (
	NoticeInProgress = Notice{
		Title:   "Operation in progress",
		Message: "Please wait for the current operation to complete.",
	}
	NoticeReadError = Notice{
		Title:   "NFC Error",
		Message: "An error occurred while reading the tag.",
	}
	NoticeUnavailable = Notice{
		Title:   "NFC unavailable",
		Message: "No NFC reader could be started.",
	}
)

// TagFoundNotice is shown when a tag is discovered.
func TagFoundNotice(tag TagDescriptor) Notice {
	return Notice{Title: "Tag found", Message: tag.JSON()}
}

// Notifier receives everything a session surfaces to the user.
type Notifier interface {
	Notify(n Notice)
	TagDiscovered(tag TagDescriptor)
	StateChanged(state State)
}

// Broadcaster is a Notifier that fans out to attached views and logs every
// notice. It remembers the last notice for views attached later.
type Broadcaster struct {
	mu      sync.RWMutex
	views   map[string]Notifier
	last    Notice
	hasLast bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{views: make(map[string]Notifier)}
}

// Attach registers a view under id, replacing any view with the same id.
func (b *Broadcaster) Attach(id string, n Notifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.views[id] = n
}

func (b *Broadcaster) Detach(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.views, id)
}

// Views returns the number of attached views.
func (b *Broadcaster) Views() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.views)
}

// LastNotice returns the most recent notice, if any.
func (b *Broadcaster) LastNotice() (Notice, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.hasLast
}

func (b *Broadcaster) Notify(n Notice) {
	log.Printf("[session] Notice: %s: %s", n.Title, n.Message)

	b.mu.Lock()
	b.last, b.hasLast = n, true
	b.mu.Unlock()

	for _, v := range b.snapshot() {
		v.Notify(n)
	}
}

func (b *Broadcaster) TagDiscovered(tag TagDescriptor) {
	for _, v := range b.snapshot() {
		v.TagDiscovered(tag)
	}
}

func (b *Broadcaster) StateChanged(state State) {
	for _, v := range b.snapshot() {
		v.StateChanged(state)
	}
}

func (b *Broadcaster) snapshot() []Notifier {
	b.mu.RLock()
	defer b.mu.RUnlock()
	views := make([]Notifier, 0, len(b.views))
	for _, v := range b.views {
		views = append(views, v)
	}
	return views
}
