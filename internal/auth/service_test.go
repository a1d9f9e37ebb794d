package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeStore struct {
	mu    sync.Mutex
	users map[string]*model.User
	otps  map[string]*model.OTP

	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[string]*model.User{},
		otps:  map[string]*model.OTP{},
	}
}

func (f *fakeStore) lookup(q store.UserQuery) *model.User {
	switch q := q.(type) {
	case store.UserByID:
		return f.users[q.ID]
	case store.UserByEmail:
		for _, u := range f.users {
			if u.Email == store.NormalizeEmail(q.Email) {
				return u
			}
		}
	}

	return nil
}

func (f *fakeStore) FindUser(_ context.Context, q store.UserQuery) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}

	u := f.lookup(q)
	if u == nil {
		return nil, store.ErrNotFound
	}

	cp := *u
	cp.PasswordHash = ""
	return &cp, nil
}

func (f *fakeStore) FindCredentials(_ context.Context, q store.UserQuery) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}

	u := f.lookup(q)
	if u == nil {
		return nil, store.ErrNotFound
	}

	cp := *u
	return &cp, nil
}

func (f *fakeStore) EmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return false, f.failWith
	}

	return f.lookup(store.UserByEmail{Email: email}) != nil, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lookup(store.UserByEmail{Email: u.Email}) != nil {
		return store.ErrDuplicate
	}

	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, userID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}

	u.PasswordHash = hash
	return nil
}

func (f *fakeStore) UpdateRole(_ context.Context, userID, role string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}

	u.Role = role
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UpdateUsers(_ context.Context, ids []string, u store.UserUpdate) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return 0, f.failWith
	}

	var n int64
	for _, id := range ids {
		usr, ok := f.users[id]
		if !ok {
			continue
		}

		if u.Role != nil {
			usr.Role = *u.Role
		}
		if u.EmailVerified != nil {
			usr.EmailVerified = *u.EmailVerified
		}
		n++
	}

	return n, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[userID]; !ok {
		return store.ErrNotFound
	}

	delete(f.users, userID)
	for email, o := range f.otps {
		if o.UserID == userID {
			delete(f.otps, email)
		}
	}

	return nil
}

func (f *fakeStore) ListUsers(_ context.Context, flt store.UserFilter, limit int) ([]model.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.User
	for _, u := range f.users {
		if flt.Role != "" && u.Role != flt.Role {
			continue
		}
		out = append(out, *u)
	}

	total := int64(len(out))
	start := min((flt.Page-1)*limit, len(out))
	end := min(start+limit, len(out))

	return out[start:end], total, nil
}

func (f *fakeStore) UpsertOTP(_ context.Context, o *model.OTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return f.failWith
	}

	cp := *o
	cp.Email = store.NormalizeEmail(cp.Email)
	f.otps[cp.Email] = &cp
	return nil
}

func (f *fakeStore) ConsumeOTP(_ context.Context, q store.OTPQuery) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}

	m, ok := q.(store.OTPByEmailAndCode)
	if !ok {
		return nil, errors.New("unexpected query")
	}

	email := store.NormalizeEmail(m.Email)
	o, ok := f.otps[email]
	if !ok || o.Code != m.Code || !o.ExpiresAt.After(m.Now) {
		return nil, store.ErrNotFound
	}

	u, ok := f.users[o.UserID]
	if !ok {
		return nil, store.ErrOwnerNotFound
	}

	delete(f.otps, email)
	u.EmailVerified = true

	cp := *u
	cp.PasswordHash = ""
	return &cp, nil
}

func (f *fakeStore) liveOTP(email string) *model.OTP {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.otps[email]
}

type sentMail struct {
	email, code string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Dispatch(_ context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, sentMail{email, code})
	return f.err
}

func (f *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.sent, "no mail dispatched")
	return f.sent[len(f.sent)-1]
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.sent)
}

type fakeJar struct {
	access, refresh string
	sets, clears    int
}

func (j *fakeJar) SetAuthCookies(access, refresh string) {
	j.access, j.refresh = access, refresh
	j.sets++
}

func (j *fakeJar) Clear() {
	j.access, j.refresh = "", ""
	j.clears++
}

// ---- helpers ----

type harness struct {
	svc    *Service
	store  *fakeStore
	mailer *fakeMailer
	tokens *security.Tokens
	now    time.Time
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	hasher := security.NewArgon()
	hasher.Memory = 1024
	hasher.Iterations = 1
	hasher.Parallelism = 1

	tokens, err := security.NewTokens("service-secret")
	require.NoError(t, err)

	h := &harness{
		store:  newFakeStore(),
		mailer: &fakeMailer{},
		tokens: tokens,
		now:    time.Now(),
	}

	clock := func() time.Time { return h.now }
	tokens.WithClock(clock)

	h.svc = New(h.store, hasher, tokens, h.mailer, Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		OTPTTL:     15 * time.Minute,
	}).WithClock(clock)

	return h
}

func (h *harness) signUp(t *testing.T, email, password string) string {
	t.Helper()

	res, err := h.svc.SignUp(context.Background(), SignUpInput{Name: "Test User", Email: email, Password: password})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotEmpty(t, res.UserID)
	h.svc.Wait()

	return res.UserID
}

func (h *harness) verify(t *testing.T, email string) {
	t.Helper()

	code := h.mailer.last(t).code
	res, err := h.svc.VerifyEmail(context.Background(), &fakeJar{}, VerifyInput{Email: email, Code: code})
	require.NoError(t, err)
	require.True(t, res.Success)
}

// ---- sign up ----

func TestSignUp_CreatesUnverifiedUserAndMailsCode(t *testing.T) {
	h := newHarness(t)

	id := h.signUp(t, "A@X.com", "Password1")

	u := h.store.users[id]
	require.NotNil(t, u)
	assert.Equal(t, "a@x.com", u.Email)
	assert.False(t, u.EmailVerified)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, model.ProviderCredentials, u.Provider)
	assert.NotEqual(t, "Password1", u.PasswordHash)

	o := h.store.liveOTP("a@x.com")
	require.NotNil(t, o)
	assert.Equal(t, id, o.UserID)
	assert.Equal(t, h.now.Add(15*time.Minute), o.ExpiresAt)

	sent := h.mailer.last(t)
	assert.Equal(t, "a@x.com", sent.email)
	assert.Equal(t, o.Code, sent.code)
}

func TestSignUp_TrimsName(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.SignUp(context.Background(), SignUpInput{Name: "  Ada  ", Email: "ada@x.com", Password: "Password1"})
	require.NoError(t, err)
	h.svc.Wait()

	assert.Equal(t, "Ada", h.store.users[res.UserID].Name)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "Password1")

	res, err := h.svc.SignUp(context.Background(), SignUpInput{Name: "Other", Email: " a@x.COM", Password: "Password2"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.False(t, res.Success)
	assert.Equal(t, "Email already in use", res.Error)
}

func TestSignUp_MailFailureKeepsAccount(t *testing.T) {
	h := newHarness(t)
	h.mailer.err = errors.New("smtp down")

	id := h.signUp(t, "a@x.com", "Password1")

	assert.NotNil(t, h.store.users[id])
	assert.NotNil(t, h.store.liveOTP("a@x.com"))
}

func TestSignUp_PersistenceFailure(t *testing.T) {
	h := newHarness(t)
	h.store.failWith = errors.New("connection refused")

	res, err := h.svc.SignUp(context.Background(), SignUpInput{Email: "a@x.com", Password: "Password1"})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, "Failed to create account", res.Error, "no internal detail crosses the boundary")
}

// ---- sign in ----

func TestSignIn_UnverifiedRequiresVerification(t *testing.T) {
	h := newHarness(t)
	codes := []string{"111111", "222222"}
	i := 0
	h.svc.newCode = func() (string, error) {
		c := codes[i]
		i++
		return c, nil
	}

	h.signUp(t, "a@x.com", "Password1")
	first := h.mailer.last(t).code
	require.Equal(t, "111111", first)

	jar := &fakeJar{}
	res, err := h.svc.SignIn(context.Background(), jar, SignInInput{Email: "a@x.com", Password: "Password1"})
	h.svc.Wait()

	assert.ErrorIs(t, err, ErrEmailNotVerified)
	assert.False(t, res.Success)
	assert.True(t, res.RequireVerification)
	assert.Zero(t, jar.sets, "no session before verification")

	assert.Equal(t, 2, h.mailer.count())
	o := h.store.liveOTP("a@x.com")
	require.NotNil(t, o)
	assert.Equal(t, h.mailer.last(t).code, o.Code)

	assert.Equal(t, "222222", o.Code)

	_, err = h.svc.VerifyEmail(context.Background(), jar, VerifyInput{Email: "a@x.com", Code: first})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode, "superseded code")
	assert.Zero(t, jar.sets)
}

func TestSignIn_Verified(t *testing.T) {
	h := newHarness(t)
	id := h.signUp(t, "a@x.com", "Password1")
	h.verify(t, "a@x.com")

	jar := &fakeJar{}
	res, err := h.svc.SignIn(context.Background(), jar, SignInInput{Email: "a@x.com", Password: "Password1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, jar.sets)

	access := h.tokens.Verify(jar.access)
	require.True(t, access.Valid)
	assert.Equal(t, id, access.Subject)
	assert.Equal(t, 15*time.Minute, access.ExpiresAt.Sub(access.IssuedAt))

	refresh := h.tokens.Verify(jar.refresh)
	require.True(t, refresh.Valid)
	assert.Equal(t, 7*24*time.Hour, refresh.ExpiresAt.Sub(refresh.IssuedAt))
}

func TestSignIn_Failures(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "Password1")

	jar := &fakeJar{}

	res, err := h.svc.SignIn(context.Background(), jar, SignInInput{Email: "nobody@x.com", Password: "Password1"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, "Invalid email or password", res.Error)

	res, err = h.svc.SignIn(context.Background(), jar, SignInInput{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Invalid email or password", res.Error)

	assert.Zero(t, jar.sets)
}

// ---- verify ----

func TestVerifyEmail_SingleUse(t *testing.T) {
	h := newHarness(t)
	id := h.signUp(t, "a@x.com", "Password1")
	code := h.mailer.last(t).code

	jar := &fakeJar{}
	res, err := h.svc.VerifyEmail(context.Background(), jar, VerifyInput{Email: "a@x.com", Code: code})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, jar.sets)
	assert.True(t, h.store.users[id].EmailVerified)
	assert.Nil(t, h.store.liveOTP("a@x.com"))

	res, err = h.svc.VerifyEmail(context.Background(), jar, VerifyInput{Email: "a@x.com", Code: code})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	assert.Equal(t, "Invalid or expired verification code", res.Error)
	assert.Equal(t, 1, jar.sets)
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "Password1")
	code := h.mailer.last(t).code

	h.advance(15 * time.Minute)

	res, err := h.svc.VerifyEmail(context.Background(), &fakeJar{}, VerifyInput{Email: "a@x.com", Code: code})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	assert.Equal(t, Result{Error: "Invalid or expired verification code"}, res)
}

func TestVerifyEmail_WrongEmailOrCode(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "Password1")
	h.signUp(t, "b@x.com", "Password1")
	codeA := h.mailer.sent[0].code

	_, err := h.svc.VerifyEmail(context.Background(), &fakeJar{}, VerifyInput{Email: "b@x.com", Code: codeA + "0"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)

	if codeA != h.mailer.sent[1].code {
		_, err = h.svc.VerifyEmail(context.Background(), &fakeJar{}, VerifyInput{Email: "b@x.com", Code: codeA})
		assert.ErrorIs(t, err, ErrInvalidOrExpiredCode, "codes are bound to their email")
	}
}

// ---- resend ----

func TestResendVerification_LeavesOneLiveCode(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "Password1")

	codes := []string{"111111", "222222"}
	i := 0
	h.svc.newCode = func() (string, error) {
		c := codes[i]
		i++
		return c, nil
	}

	for i := 0; i < 2; i++ {
		res, err := h.svc.ResendVerification(context.Background(), ResendInput{Email: "a@x.com"})
		require.NoError(t, err)
		assert.True(t, res.Success)
	}
	h.svc.Wait()

	assert.Len(t, h.store.otps, 1)
	assert.Equal(t, "222222", h.store.liveOTP("a@x.com").Code)

	_, err := h.svc.VerifyEmail(context.Background(), &fakeJar{}, VerifyInput{Email: "a@x.com", Code: "111111"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)

	res, err := h.svc.VerifyEmail(context.Background(), &fakeJar{}, VerifyInput{Email: "a@x.com", Code: "222222"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestResendVerification_UnknownUser(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.ResendVerification(context.Background(), ResendInput{Email: "nobody@x.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, "User not found", res.Error)
	assert.Zero(t, h.mailer.count())
}

// ---- refresh / sign out ----

func TestRefresh_RotatesBothTokens(t *testing.T) {
	h := newHarness(t)
	id := h.signUp(t, "a@x.com", "Password1")
	h.verify(t, "a@x.com")

	jar := &fakeJar{}
	_, err := h.svc.SignIn(context.Background(), jar, SignInInput{Email: "a@x.com", Password: "Password1"})
	require.NoError(t, err)
	oldAccess, oldRefresh := jar.access, jar.refresh

	h.advance(10 * time.Minute)

	s, err := h.svc.Refresh(context.Background(), jar, oldRefresh)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, id, s.User.ID)
	assert.True(t, s.User.EmailVerified)
	assert.Equal(t, h.now.Add(15*time.Minute).UTC(), s.Expires)

	assert.NotEqual(t, oldAccess, jar.access)
	assert.NotEqual(t, oldRefresh, jar.refresh)
	assert.True(t, h.tokens.Verify(jar.refresh).Valid)
}

func TestRefresh_FailsSilently(t *testing.T) {
	h := newHarness(t)
	id := h.signUp(t, "a@x.com", "Password1")

	expired, err := h.tokens.Sign(id, time.Minute)
	require.NoError(t, err)
	live, err := h.tokens.Sign(id, time.Hour)
	require.NoError(t, err)
	h.advance(2 * time.Minute)

	ghost, err := h.tokens.Sign("ghost", time.Hour)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"missing":      "",
		"garbage":      "abc.def.ghi",
		"expired":      expired,
		"deleted user": ghost,
	} {
		t.Run(name, func(t *testing.T) {
			jar := &fakeJar{}
			s, err := h.svc.Refresh(context.Background(), jar, tok)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.Zero(t, jar.sets)
		})
	}

	h.store.failWith = errors.New("db down")
	_, err = h.svc.Refresh(context.Background(), &fakeJar{}, live)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestSignOut_Idempotent(t *testing.T) {
	h := newHarness(t)
	jar := &fakeJar{access: "a", refresh: "r"}

	h.svc.SignOut(jar)
	h.svc.SignOut(jar)

	assert.Equal(t, 2, jar.clears)
	assert.Empty(t, jar.access)
	assert.Empty(t, jar.refresh)
}

// ---- account ----

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	id := h.signUp(t, "a@x.com", "Password1")
	h.verify(t, "a@x.com")

	res, err := h.svc.ChangePassword(context.Background(), id, ChangePasswordInput{Current: "nope", New: "Password2"})
	assert.ErrorIs(t, err, ErrIncorrectPassword)
	assert.Equal(t, "Old password is incorrect", res.Error)

	res, err = h.svc.ChangePassword(context.Background(), id, ChangePasswordInput{Current: "Password1", New: "Password2"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = h.svc.SignIn(context.Background(), &fakeJar{}, SignInInput{Email: "a@x.com", Password: "Password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = h.svc.SignIn(context.Background(), &fakeJar{}, SignInInput{Email: "a@x.com", Password: "Password2"})
	assert.NoError(t, err)

	_, err = h.svc.ChangePassword(context.Background(), "ghost", ChangePasswordInput{Current: "x", New: "Password3"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteAccount(t *testing.T) {
	h := newHarness(t)
	id := h.signUp(t, "a@x.com", "Password1")

	jar := &fakeJar{access: "a", refresh: "r"}
	res, err := h.svc.DeleteAccount(context.Background(), jar, id)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, jar.clears)
	assert.Nil(t, h.store.users[id])
	assert.Nil(t, h.store.liveOTP("a@x.com"))

	_, err = h.svc.DeleteAccount(context.Background(), jar, id)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// ---- admin ----

func TestChangeRole(t *testing.T) {
	h := newHarness(t)
	id := h.signUp(t, "a@x.com", "Password1")

	_, err := h.svc.ChangeRole(context.Background(), id, "moderator")
	assert.ErrorIs(t, err, ErrInvalidRole)

	res, err := h.svc.ChangeRole(context.Background(), id, model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, model.RoleAdmin, h.store.users[id].Role)

	_, err = h.svc.ChangeRole(context.Background(), "ghost", model.RoleAdmin)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsers_Pagination(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 23; i++ {
		require.NoError(t, h.store.CreateUser(context.Background(), &model.User{
			ID:    fmt.Sprintf("u%02d", i),
			Email: fmt.Sprintf("u%02d@x.com", i),
			Role:  model.RoleUser,
		}))
	}

	page, err := h.svc.ListUsers(context.Background(), store.UserFilter{Page: 0})
	require.NoError(t, err)
	assert.Len(t, page.Users, 10)
	assert.Equal(t, Pagination{
		CurrentPage: 1,
		TotalPages:  3,
		TotalUsers:  23,
		HasNextPage: true,
		HasPrevPage: false,
		Limit:       10,
	}, page.Pagination)

	page, err = h.svc.ListUsers(context.Background(), store.UserFilter{Page: 3})
	require.NoError(t, err)
	assert.Len(t, page.Users, 3)
	assert.False(t, page.Pagination.HasNextPage)
	assert.True(t, page.Pagination.HasPrevPage)
}

func TestDeleteUser(t *testing.T) {
	h := newHarness(t)
	id := h.signUp(t, "a@x.com", "Password1")

	res, err := h.svc.DeleteUser(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = h.svc.DeleteUser(context.Background(), id)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBulkUpdateUsers(t *testing.T) {
	h := newHarness(t)
	a := h.signUp(t, "a@x.com", "Password1")
	b := h.signUp(t, "b@x.com", "Password1")
	c := h.signUp(t, "c@x.com", "Password1")

	admin := model.RoleAdmin
	verified := true

	res, err := h.svc.BulkUpdateUsers(context.Background(), BulkUpdateInput{
		UserIDs:       []string{a, b, "ghost"},
		Role:          &admin,
		EmailVerified: &verified,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.EqualValues(t, 2, res.ModifiedCount)

	assert.Equal(t, model.RoleAdmin, h.store.users[a].Role)
	assert.True(t, h.store.users[b].EmailVerified)
	assert.Equal(t, model.RoleUser, h.store.users[c].Role)
	assert.False(t, h.store.users[c].EmailVerified)
}

func TestBulkUpdateUsers_Rejects(t *testing.T) {
	h := newHarness(t)
	id := h.signUp(t, "a@x.com", "Password1")

	bad := "moderator"
	verified := true

	res, err := h.svc.BulkUpdateUsers(context.Background(), BulkUpdateInput{UserIDs: []string{id}, Role: &bad})
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Equal(t, "Role must be user or admin", res.Error)

	_, err = h.svc.BulkUpdateUsers(context.Background(), BulkUpdateInput{UserIDs: []string{id}})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	_, err = h.svc.BulkUpdateUsers(context.Background(), BulkUpdateInput{EmailVerified: &verified})
	assert.ErrorIs(t, err, ErrNoUsersSelected)

	assert.Equal(t, model.RoleUser, h.store.users[id].Role)
	assert.False(t, h.store.users[id].EmailVerified)

	h.store.failWith = errors.New("db down")
	_, err = h.svc.BulkUpdateUsers(context.Background(), BulkUpdateInput{UserIDs: []string{id}, EmailVerified: &verified})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestProfile(t *testing.T) {
	h := newHarness(t)
	id := h.signUp(t, "a@x.com", "Password1")

	u, err := h.svc.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultImage, u.Image)
	assert.Equal(t, model.DefaultImageID, u.ImageID)
	assert.Empty(t, u.PasswordHash)

	_, err = h.svc.Profile(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMessage_FallbackHidesInternals(t *testing.T) {
	err := persistence(errors.New("pq: relation \"users\" does not exist"))
	assert.Equal(t, "Failed to sign in", Message(err, msgSignInFailed))
	assert.Equal(t, "Invalid or expired verification code", Message(fmt.Errorf("wrapped, %w", ErrInvalidOrExpiredCode), "x"))
}
