package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memDB is an in-memory stand-in for the PostgreSQL schema.
// Foreign keys are checked only where the reset order depends on them.
type memDB struct {
	mu          sync.Mutex
	seq         int64
	users       map[int64]models.User
	departments []models.Department
	tags        map[int64]models.Tag
	documents   map[int64]models.Document
	versions    map[int64]models.DocumentVersion
	docTags     map[int64][]int64
	permissions map[int64][]int64
}

func newMemDB() *memDB {
	return &memDB{
		users:       map[int64]models.User{},
		tags:        map[int64]models.Tag{},
		documents:   map[int64]models.Document{},
		versions:    map[int64]models.DocumentVersion{},
		docTags:     map[int64][]int64{},
		permissions: map[int64][]int64{},
	}
}

func (db *memDB) nextID() int64 {
	db.seq++
	return db.seq
}

// snapshot copies the store; caller holds mu
func (db *memDB) snapshot() *memDB {
	c := newMemDB()
	c.seq = db.seq
	for k, v := range db.users {
		c.users[k] = v
	}
	c.departments = append([]models.Department(nil), db.departments...)
	for k, v := range db.tags {
		c.tags[k] = v
	}
	for k, v := range db.documents {
		c.documents[k] = v
	}
	for k, v := range db.versions {
		c.versions[k] = v
	}
	for k, v := range db.docTags {
		c.docTags[k] = append([]int64(nil), v...)
	}
	for k, v := range db.permissions {
		c.permissions[k] = append([]int64(nil), v...)
	}
	return c
}

func (db *memDB) restore(s *memDB) {
	db.seq = s.seq
	db.users = s.users
	db.departments = s.departments
	db.tags = s.tags
	db.documents = s.documents
	db.versions = s.versions
	db.docTags = s.docTags
	db.permissions = s.permissions
}

// ---------------------------------------------------------------------------
// Transactions and locks
// ---------------------------------------------------------------------------

type txStateKey struct{}

type txState struct {
	release []func()
}

// fakeTxManager restores the whole store on rollback, so tests that expect a
// failed transaction must not run other writers concurrently.
type fakeTxManager struct {
	db        *memDB
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if _, ok := ctx.Value(txStateKey{}).(*txState); ok {
		return fn(ctx)
	}

	state := &txState{}
	m.db.mu.Lock()
	snap := m.db.snapshot()
	m.db.mu.Unlock()

	err := fn(context.WithValue(ctx, txStateKey{}, state))

	if err != nil {
		m.db.mu.Lock()
		m.db.restore(snap)
		m.db.mu.Unlock()
	}
	for i := len(state.release) - 1; i >= 0; i-- {
		state.release[i]()
	}

	m.mu.Lock()
	if err != nil {
		m.rollbacks++
	} else {
		m.commits++
	}
	m.mu.Unlock()
	return err
}

type fakeLocker struct {
	mu        sync.Mutex
	titles    map[string]*sync.Mutex
	gate      sync.RWMutex
	exclusive int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{titles: map[string]*sync.Mutex{}}
}

func txFrom(ctx context.Context) (*txState, error) {
	st, ok := ctx.Value(txStateKey{}).(*txState)
	if !ok {
		return nil, errors.New("lock requested outside a transaction")
	}
	return st, nil
}

func (l *fakeLocker) LockTitle(ctx context.Context, title string) error {
	st, err := txFrom(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	m, ok := l.titles[title]
	if !ok {
		m = &sync.Mutex{}
		l.titles[title] = m
	}
	l.mu.Unlock()

	m.Lock()
	st.release = append(st.release, m.Unlock)
	return nil
}

func (l *fakeLocker) EnterShared(ctx context.Context) error {
	st, err := txFrom(ctx)
	if err != nil {
		return err
	}
	l.gate.RLock()
	st.release = append(st.release, l.gate.RUnlock)
	return nil
}

func (l *fakeLocker) EnterExclusive(ctx context.Context) error {
	st, err := txFrom(ctx)
	if err != nil {
		return err
	}
	l.gate.Lock()
	l.mu.Lock()
	l.exclusive++
	l.mu.Unlock()
	st.release = append(st.release, l.gate.Unlock)
	return nil
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

type fakeDocRepo struct{ db *memDB }

func (r *fakeDocRepo) Create(ctx context.Context, doc *models.Document) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, d := range r.db.documents {
		if d.Title == doc.Title {
			return &domain.ConflictError{Message: "duplicate title", ResourceType: "document", ResourceID: doc.Title}
		}
	}
	doc.ID = r.db.nextID()
	doc.CreatedAt = time.Now()
	row := *doc
	row.Tags, row.Versions = nil, nil
	r.db.documents[doc.ID] = row
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	return &d, nil
}

func (r *fakeDocRepo) GetByTitle(ctx context.Context, title string) (*models.Document, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var found *models.Document
	for _, d := range r.db.documents {
		if d.Title == title && (found == nil || d.ID < found.ID) {
			d := d
			found = &d
		}
	}
	if found == nil {
		return nil, fmt.Errorf("document '%s': %w", title, domain.ErrNotFound)
	}
	return found, nil
}

func (r *fakeDocRepo) SetLatestVersion(ctx context.Context, documentID, versionID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.documents[documentID]
	if !ok {
		return fmt.Errorf("document %d: %w", documentID, domain.ErrNotFound)
	}
	id := versionID
	d.LatestVersionID = &id
	r.db.documents[documentID] = d
	return nil
}

func (r *fakeDocRepo) ReplaceTags(ctx context.Context, documentID int64, tags []models.Tag) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := map[int64]bool{}
	ids := []int64{}
	for _, t := range tags {
		if !seen[t.ID] {
			seen[t.ID] = true
			ids = append(ids, t.ID)
		}
	}
	r.db.docTags[documentID] = ids
	return nil
}

func (r *fakeDocRepo) Search(ctx context.Context, filter repositories.SearchFilter) ([]models.Document, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Document{}
	for _, d := range r.db.documents {
		if filter.Title != "" && !strings.Contains(strings.ToLower(d.Title), strings.ToLower(filter.Title)) {
			continue
		}
		if filter.Tag != "" {
			match := false
			for _, tid := range r.db.docTags[d.ID] {
				if r.db.tags[tid].Name == filter.Tag {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeVersionRepo struct {
	db *memDB

	// conflicts makes the next N Create calls fail with a unique violation
	conflicts int
}

func (r *fakeVersionRepo) Create(ctx context.Context, v *models.DocumentVersion) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.conflicts > 0 {
		r.conflicts--
		return &domain.ConflictError{Message: "injected", ResourceType: "document_version"}
	}
	for _, existing := range r.db.versions {
		if existing.DocumentID == v.DocumentID && existing.VersionNumber == v.VersionNumber {
			return &domain.ConflictError{Message: "duplicate version", ResourceType: "document_version"}
		}
	}
	if _, ok := r.db.documents[v.DocumentID]; !ok {
		return fmt.Errorf("document %d: %w", v.DocumentID, domain.ErrNotFound)
	}
	v.ID = r.db.nextID()
	v.CreatedAt = time.Now()
	r.db.versions[v.ID] = *v
	return nil
}

func (r *fakeVersionRepo) GetByID(ctx context.Context, id int64) (*models.DocumentVersion, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v, ok := r.db.versions[id]
	if !ok {
		return nil, fmt.Errorf("document version %d: %w", id, domain.ErrNotFound)
	}
	return &v, nil
}

func (r *fakeVersionRepo) GetByNumber(ctx context.Context, documentID int64, number int) (*models.DocumentVersion, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, v := range r.db.versions {
		if v.DocumentID == documentID && v.VersionNumber == number {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("version %d of document %d: %w", number, documentID, domain.ErrNotFound)
}

func (r *fakeVersionRepo) GetLatest(ctx context.Context, documentID int64) (*models.DocumentVersion, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.documents[documentID]
	if !ok || d.LatestVersionID == nil {
		return nil, fmt.Errorf("latest version of document %d: %w", documentID, domain.ErrNotFound)
	}
	v := r.db.versions[*d.LatestVersionID]
	return &v, nil
}

func (r *fakeVersionRepo) ListByDocument(ctx context.Context, documentID int64) ([]models.DocumentVersion, error) {
	m, err := r.ListByDocuments(ctx, []int64{documentID})
	if err != nil {
		return nil, err
	}
	if m[documentID] == nil {
		return []models.DocumentVersion{}, nil
	}
	return m[documentID], nil
}

func (r *fakeVersionRepo) ListByDocuments(ctx context.Context, documentIDs []int64) (map[int64][]models.DocumentVersion, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range documentIDs {
		want[id] = true
	}
	out := map[int64][]models.DocumentVersion{}
	for _, v := range r.db.versions {
		if want[v.DocumentID] {
			out[v.DocumentID] = append(out[v.DocumentID], v)
		}
	}
	for _, vs := range out {
		sort.Slice(vs, func(i, j int) bool { return vs[i].VersionNumber > vs[j].VersionNumber })
	}
	return out, nil
}

type fakeTagRepo struct{ db *memDB }

func (r *fakeTagRepo) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.tags {
		if t.Name == name {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("tag '%s': %w", name, domain.ErrNotFound)
}

func (r *fakeTagRepo) Create(ctx context.Context, tag *models.Tag) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.tags {
		if t.Name == tag.Name {
			tag.ID = t.ID
			return nil
		}
	}
	tag.ID = r.db.nextID()
	r.db.tags[tag.ID] = *tag
	return nil
}

func (r *fakeTagRepo) ListByDocuments(ctx context.Context, documentIDs []int64) (map[int64][]models.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := map[int64][]models.Tag{}
	for _, id := range documentIDs {
		for _, tid := range r.db.docTags[id] {
			out[id] = append(out[id], r.db.tags[tid])
		}
		sort.Slice(out[id], func(i, j int) bool { return out[id][i].Name < out[id][j].Name })
	}
	return out, nil
}

type fakeDeptRepo struct{ db *memDB }

func (r *fakeDeptRepo) List(ctx context.Context) ([]models.Department, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]models.Department{}, r.db.departments...), nil
}

func (r *fakeDeptRepo) Count(ctx context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.departments), nil
}

func (r *fakeDeptRepo) CreateMany(ctx context.Context, names []string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, n := range names {
		exists := false
		for _, d := range r.db.departments {
			if d.Name == n {
				exists = true
			}
		}
		if !exists {
			r.db.departments = append(r.db.departments, models.Department{ID: r.db.nextID(), Name: n})
		}
	}
	return nil
}

type fakeUserRepo struct{ db *memDB }

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == user.Email {
			return &domain.ConflictError{Message: "Email already registered", ResourceType: "user", ResourceID: user.Email}
		}
	}
	if user.Role == "" {
		user.Role = models.RoleEmployee
	}
	user.ID = r.db.nextID()
	r.db.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user '%s': %w", email, domain.ErrNotFound)
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, email, role string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, u := range r.db.users {
		if u.Email == email {
			u.Role = role
			r.db.users[id] = u
			return nil
		}
	}
	return fmt.Errorf("user %q: %w", email, domain.ErrNotFound)
}

type fakeMaintenanceRepo struct{ db *memDB }

func (r *fakeMaintenanceRepo) ClearLatestPointers(ctx context.Context) error {
	if _, err := txFrom(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, d := range r.db.documents {
		d.LatestVersionID = nil
		r.db.documents[id] = d
	}
	return nil
}

func (r *fakeMaintenanceRepo) DeleteAll(ctx context.Context, tables ...string) error {
	if _, err := txFrom(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	fk := func(table, child string) error {
		return fmt.Errorf("delete from %s violates foreign key from %s", table, child)
	}
	for _, table := range tables {
		switch table {
		case repositories.TableDocumentTags:
			r.db.docTags = map[int64][]int64{}
		case repositories.TableDocumentPermissions:
			r.db.permissions = map[int64][]int64{}
		case repositories.TableDocumentVersions:
			for _, d := range r.db.documents {
				if d.LatestVersionID != nil {
					return fk(table, repositories.TableDocuments)
				}
			}
			r.db.versions = map[int64]models.DocumentVersion{}
		case repositories.TableDocuments:
			if len(r.db.versions) > 0 {
				return fk(table, repositories.TableDocumentVersions)
			}
			if len(r.db.docTags) > 0 {
				return fk(table, repositories.TableDocumentTags)
			}
			if len(r.db.permissions) > 0 {
				return fk(table, repositories.TableDocumentPermissions)
			}
			r.db.documents = map[int64]models.Document{}
		case repositories.TableTags:
			if len(r.db.docTags) > 0 {
				return fk(table, repositories.TableDocumentTags)
			}
			r.db.tags = map[int64]models.Tag{}
		case repositories.TableUsers:
			if len(r.db.documents) > 0 || len(r.db.versions) > 0 {
				return fk(table, repositories.TableDocuments)
			}
			r.db.users = map[int64]models.User{}
		case repositories.TableDepartments:
			if len(r.db.users) > 0 {
				return fk(table, repositories.TableUsers)
			}
			if len(r.db.permissions) > 0 {
				return fk(table, repositories.TableDocumentPermissions)
			}
			r.db.departments = nil
		default:
			return fmt.Errorf("unknown table %q", table)
		}
	}
	return nil
}

func (r *fakeMaintenanceRepo) Counts(ctx context.Context, tables ...string) (map[string]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := map[string]int{}
	for _, t := range tables {
		switch t {
		case repositories.TableUsers:
			out[t] = len(r.db.users)
		case repositories.TableDepartments:
			out[t] = len(r.db.departments)
		case repositories.TableTags:
			out[t] = len(r.db.tags)
		case repositories.TableDocuments:
			out[t] = len(r.db.documents)
		case repositories.TableDocumentVersions:
			out[t] = len(r.db.versions)
		case repositories.TableDocumentTags:
			n := 0
			for _, ids := range r.db.docTags {
				n += len(ids)
			}
			out[t] = n
		case repositories.TableDocumentPermissions:
			n := 0
			for _, ids := range r.db.permissions {
				n += len(ids)
			}
			out[t] = n
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Blob store
// ---------------------------------------------------------------------------

type memBlobStore struct {
	mu       sync.Mutex
	n        int
	data     map[string][]byte
	deleted  []string
	storeErr error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{data: map[string][]byte{}}
}

func (s *memBlobStore) Store(ctx context.Context, r io.Reader, name string) (string, error) {
	if s.storeErr != nil {
		return "", s.storeErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	loc := fmt.Sprintf("mem/%d-%s", s.n, name)
	s.data[loc] = b
	return loc, nil
}

func (s *memBlobStore) Retrieve(ctx context.Context, loc string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[loc]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", loc, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memBlobStore) Delete(ctx context.Context, loc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, loc)
	s.deleted = append(s.deleted, loc)
	return nil
}

func (s *memBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	db          *memDB
	tx          *fakeTxManager
	locker      *fakeLocker
	blobs       *memBlobStore
	docRepo     *fakeDocRepo
	versionRepo *fakeVersionRepo
	tagRepo     *fakeTagRepo
	deptRepo    *fakeDeptRepo
	userRepo    *fakeUserRepo
	maintRepo   *fakeMaintenanceRepo
}

func newFixture() *fixture {
	db := newMemDB()
	return &fixture{
		db:          db,
		tx:          &fakeTxManager{db: db},
		locker:      newFakeLocker(),
		blobs:       newMemBlobStore(),
		docRepo:     &fakeDocRepo{db: db},
		versionRepo: &fakeVersionRepo{db: db},
		tagRepo:     &fakeTagRepo{db: db},
		deptRepo:    &fakeDeptRepo{db: db},
		userRepo:    &fakeUserRepo{db: db},
		maintRepo:   &fakeMaintenanceRepo{db: db},
	}
}

func (f *fixture) documentService() *documentService {
	return NewDocumentService(DocumentServiceDeps{
		Documents:   f.docRepo,
		Versions:    f.versionRepo,
		Tags:        f.tagRepo,
		Departments: f.deptRepo,
		TxManager:   f.tx,
		Locker:      f.locker,
		Blobs:       f.blobs,
		Logger:      testLogger(),
	}).(*documentService)
}

func (f *fixture) maintenanceService() *maintenanceService {
	return NewMaintenanceService(f.deptRepo, f.maintRepo, f.tx, f.locker, testLogger()).(*maintenanceService)
}

// addUser inserts a user row directly
func (f *fixture) addUser(email string) int64 {
	u := &models.User{Email: email, Name: email, PasswordHash: "x"}
	if err := f.userRepo.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u.ID
}
