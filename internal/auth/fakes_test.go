package auth

import (
	"context"
	"sync"
	"time"

	"github.com/authstack/go-auth-service/internal/user"
)

// fakeDirectory is an in-memory UserDirectory. It mirrors the repository
// contract: duplicate-email detection on Create, sentinel errors, and
// value-copy semantics so callers never alias stored records.
type fakeDirectory struct {
	mu          sync.Mutex
	byID        map[string]*user.User
	failWith    error
	createCalls int
	readCalls   int
	writeCalls  int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{byID: make(map[string]*user.User)}
}

func cloneUser(u *user.User) *user.User {
	c := *u
	if u.ResetCode != nil {
		code := *u.ResetCode
		c.ResetCode = &code
	}
	if u.ResetCodeExpiry != nil {
		exp := *u.ResetCodeExpiry
		c.ResetCodeExpiry = &exp
	}
	return &c
}

func (d *fakeDirectory) Create(ctx context.Context, u *user.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.createCalls++
	if d.failWith != nil {
		return d.failWith
	}
	for _, existing := range d.byID {
		if existing.Email == u.Email {
			return user.ErrDuplicateEmail
		}
	}
	d.byID[u.ID] = cloneUser(u)
	return nil
}

func (d *fakeDirectory) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readCalls++
	if d.failWith != nil {
		return nil, d.failWith
	}
	for _, u := range d.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (d *fakeDirectory) GetByID(ctx context.Context, id string) (*user.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readCalls++
	if d.failWith != nil {
		return nil, d.failWith
	}
	u, ok := d.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return cloneUser(u), nil
}

func (d *fakeDirectory) SetResetCode(ctx context.Context, id string, code string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeCalls++
	if d.failWith != nil {
		return d.failWith
	}
	u, ok := d.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	u.ResetCode = &code
	u.ResetCodeExpiry = &expiresAt
	u.UpdatedAt = time.Now()
	return nil
}

func (d *fakeDirectory) CompletePasswordReset(ctx context.Context, id string, passwordHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeCalls++
	if d.failWith != nil {
		return d.failWith
	}
	u, ok := d.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetCode = nil
	u.ResetCodeExpiry = nil
	u.UpdatedAt = time.Now()
	return nil
}

func (d *fakeDirectory) totalCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.createCalls + d.readCalls + d.writeCalls
}

// fakeNotifier records outbound reset-code mail.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to   string
	code string
}

func (n *fakeNotifier) SendPasswordResetCode(ctx context.Context, toEmail, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{to: toEmail, code: code})
	return nil
}

func (n *fakeNotifier) lastSent() (sentMail, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentMail{}, false
	}
	return n.sent[len(n.sent)-1], true
}

// fakeClock is an adjustable clock wired into Service.now.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
