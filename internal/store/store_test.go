package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/samajhub/samaj-go/internal/model"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "samaj-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func createTestUser(t *testing.T, q *Queries, email, mobile string) model.User {
	t.Helper()

	now := time.Now()
	user, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        sql.NullString{String: email, Valid: email != ""},
		Mobile:       mobile,
		PasswordHash: sql.NullString{String: "hash", Valid: true},
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func TestCreateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)

	user := createTestUser(t, q, "test@example.com", "9876543210")
	if user.ID == 0 {
		t.Error("user.ID should not be 0")
	}
	if user.Email.String != "test@example.com" {
		t.Errorf("Email = %q, want %q", user.Email.String, "test@example.com")
	}
	if user.Mobile != "9876543210" {
		t.Errorf("Mobile = %q, want %q", user.Mobile, "9876543210")
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleUser)
	}
}

func TestCreateUser_GuestWithoutCredentials(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	guest, err := q.CreateUser(ctx, CreateUserParams{
		Mobile:    "9000000001",
		Role:      model.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if guest.Email.Valid {
		t.Error("guest should have no email")
	}
	if !guest.IsGuest() {
		t.Error("user without password hash should be a guest")
	}
}

func TestGetUserByEmail(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	created := createTestUser(t, q, "find@example.com", "9876543211")

	found, err := q.GetUserByEmail(ctx, "find@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)

	_, err := q.GetUserByEmail(context.Background(), "nonexistent@example.com")
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestGetUserByMobile(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	created := createTestUser(t, q, "mobile@example.com", "9123456789")

	found, err := q.GetUserByMobile(ctx, "9123456789")
	if err != nil {
		t.Fatalf("GetUserByMobile: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
}

func TestUpdateUserCredentials(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	guest, err := q.CreateUser(ctx, CreateUserParams{
		Mobile:    "9000000002",
		Role:      model.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	err = q.UpdateUserCredentials(ctx, UpdateUserCredentialsParams{
		ID:           guest.ID,
		Email:        sql.NullString{String: "promoted@example.com", Valid: true},
		PasswordHash: sql.NullString{String: "newhash", Valid: true},
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("UpdateUserCredentials: %v", err)
	}

	found, err := q.GetUserByID(ctx, guest.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if found.Email.String != "promoted@example.com" {
		t.Errorf("Email = %q, want promoted@example.com", found.Email.String)
	}
	if found.IsGuest() {
		t.Error("user should no longer be a guest after setting credentials")
	}
}

func TestDeleteStaleGuests(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	old := time.Now().Add(-48 * time.Hour)
	_, err := q.CreateUser(ctx, CreateUserParams{
		Mobile:    "9000000003",
		Role:      model.RoleUser,
		CreatedAt: old,
		UpdatedAt: old,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	kept := createTestUser(t, q, "kept@example.com", "9000000004")

	removed, err := q.DeleteStaleGuests(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteStaleGuests: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := q.GetUserByID(ctx, kept.ID); err != nil {
		t.Errorf("registered user should survive purge: %v", err)
	}
}

// Profile tests

func seedLocation(t *testing.T, db *sql.DB) (stateID, distID, tahsilID, profID int64) {
	t.Helper()

	ctx := context.Background()
	if err := db.QueryRowContext(ctx,
		`INSERT INTO master_state (state_name) VALUES ('Maharashtra') RETURNING id`).
		Scan(&stateID); err != nil {
		t.Fatalf("seeding state: %v", err)
	}
	if err := db.QueryRowContext(ctx,
		`INSERT INTO master_dist (master_state_id, dist_name) VALUES (?, 'Pune') RETURNING id`,
		stateID).Scan(&distID); err != nil {
		t.Fatalf("seeding district: %v", err)
	}
	if err := db.QueryRowContext(ctx,
		`INSERT INTO master_tahsil (master_dist_id, tahsil_name) VALUES (?, 'Haveli') RETURNING id`,
		distID).Scan(&tahsilID); err != nil {
		t.Fatalf("seeding tahsil: %v", err)
	}
	if err := db.QueryRowContext(ctx,
		`INSERT INTO master_profession (employee_type) VALUES ('PRIVATE') RETURNING id`).
		Scan(&profID); err != nil {
		t.Fatalf("seeding profession: %v", err)
	}
	return stateID, distID, tahsilID, profID
}

func TestUpsertProfile(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := createTestUser(t, q, "profile@example.com", "9876500001")
	stateID, distID, tahsilID, profID := seedLocation(t, db)

	now := time.Now()
	profile, err := q.UpsertProfile(ctx, UpsertProfileParams{
		UserID:       user.ID,
		FirstName:    "Asha",
		LastName:     "Patil",
		DOB:          sql.NullTime{Time: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		Gender:       model.GenderFemale,
		StateID:      sql.NullInt64{Int64: stateID, Valid: true},
		DistrictID:   sql.NullInt64{Int64: distID, Valid: true},
		TahsilID:     sql.NullInt64{Int64: tahsilID, Valid: true},
		AddressLine:  sql.NullString{String: "12 MG Road", Valid: true},
		ProfessionID: sql.NullInt64{Int64: profID, Valid: true},
		Now:          now,
	})
	if err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}

	if profile.FirstName != "Asha" {
		t.Errorf("FirstName = %q, want Asha", profile.FirstName)
	}
	if profile.StateName.String != "Maharashtra" {
		t.Errorf("StateName = %q, want Maharashtra", profile.StateName.String)
	}
	if profile.ProfessionType.String != "PRIVATE" {
		t.Errorf("ProfessionType = %q, want PRIVATE", profile.ProfessionType.String)
	}
	if !profile.IsComplete() {
		t.Error("profile with all required fields should be complete")
	}

	// Second upsert replaces instead of duplicating.
	updated, err := q.UpsertProfile(ctx, UpsertProfileParams{
		UserID:      user.ID,
		FirstName:   "Asha",
		LastName:    "Deshmukh",
		Gender:      model.GenderFemale,
		AddressLine: sql.NullString{String: "12 MG Road", Valid: true},
		Now:         time.Now(),
	})
	if err != nil {
		t.Fatalf("second UpsertProfile: %v", err)
	}
	if updated.LastName != "Deshmukh" {
		t.Errorf("LastName = %q, want Deshmukh", updated.LastName)
	}
	if updated.IsComplete() {
		t.Error("profile missing location should be incomplete")
	}

	count, err := q.CountProfiles(ctx)
	if err != nil {
		t.Fatalf("CountProfiles: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (upsert should not duplicate)", count)
	}
}

func TestGetUserWithProfile(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := createTestUser(t, q, "joined@example.com", "9876500002")

	// Without a profile the user comes back bare.
	bare, err := q.GetUserWithProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserWithProfile: %v", err)
	}
	if bare.Profile != nil {
		t.Error("expected nil profile before upsert")
	}

	_, err = q.UpsertProfile(ctx, UpsertProfileParams{
		UserID:    user.ID,
		FirstName: "Ravi",
		LastName:  "Kumar",
		Gender:    model.GenderMale,
		Now:       time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}

	full, err := q.GetUserWithProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserWithProfile: %v", err)
	}
	if full.Profile == nil {
		t.Fatal("expected attached profile")
	}
	if full.Profile.FirstName != "Ravi" {
		t.Errorf("FirstName = %q, want Ravi", full.Profile.FirstName)
	}
}

// Master data tests

func TestLocationQueries(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	stateID, distID, _, _ := seedLocation(t, db)

	states, err := q.ListStates(ctx)
	if err != nil {
		t.Fatalf("ListStates: %v", err)
	}
	if len(states) != 1 || states[0].Name != "Maharashtra" {
		t.Errorf("states = %+v, want one Maharashtra", states)
	}

	districts, err := q.ListDistrictsByState(ctx, stateID)
	if err != nil {
		t.Fatalf("ListDistrictsByState: %v", err)
	}
	if len(districts) != 1 || districts[0].Name != "Pune" {
		t.Errorf("districts = %+v, want one Pune", districts)
	}

	tahsils, err := q.ListTahsilsByDistrict(ctx, distID)
	if err != nil {
		t.Fatalf("ListTahsilsByDistrict: %v", err)
	}
	if len(tahsils) != 1 || tahsils[0].Name != "Haveli" {
		t.Errorf("tahsils = %+v, want one Haveli", tahsils)
	}

	professions, err := q.ListProfessions(ctx)
	if err != nil {
		t.Fatalf("ListProfessions: %v", err)
	}
	if len(professions) != 1 || professions[0].EmployeeType != "PRIVATE" {
		t.Errorf("professions = %+v, want one PRIVATE", professions)
	}
}

func TestListDistrictsByState_Empty(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)

	districts, err := q.ListDistrictsByState(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListDistrictsByState: %v", err)
	}
	if len(districts) != 0 {
		t.Errorf("len(districts) = %d, want 0", len(districts))
	}
}

func TestLocationHierarchy(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	seedLocation(t, db)

	// A state with no districts should still appear in the tree.
	if _, err := db.ExecContext(ctx,
		`INSERT INTO master_state (state_name) VALUES ('Goa')`); err != nil {
		t.Fatalf("seeding empty state: %v", err)
	}

	nodes, err := q.LocationHierarchy(ctx)
	if err != nil {
		t.Fatalf("LocationHierarchy: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(nodes))
	}

	// Ordered by state name: Goa before Maharashtra.
	if nodes[0].Name != "Goa" || len(nodes[0].Districts) != 0 {
		t.Errorf("nodes[0] = %+v, want empty Goa", nodes[0])
	}
	mh := nodes[1]
	if mh.Name != "Maharashtra" || len(mh.Districts) != 1 {
		t.Fatalf("nodes[1] = %+v, want Maharashtra with one district", mh)
	}
	if mh.Districts[0].Name != "Pune" || len(mh.Districts[0].Tahsils) != 1 {
		t.Errorf("district = %+v, want Pune with one tahsil", mh.Districts[0])
	}
}

// Blog tests

func createTestPost(t *testing.T, q *Queries, userID int64, title, status string, at time.Time) model.BlogPost {
	t.Helper()

	post, err := q.CreatePost(context.Background(), CreatePostParams{
		UserID:    userID,
		Title:     title,
		Slug:      title,
		Content:   "Content of " + title,
		Status:    status,
		CreatedAt: at,
		UpdatedAt: at,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return post
}

func TestCreatePost(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)

	user := createTestUser(t, q, "author@example.com", "9876500010")
	post := createTestPost(t, q, user.ID, "First Post", model.PostStatusPublished, time.Now())

	if post.ID == 0 {
		t.Error("post.ID should not be 0")
	}
	if post.Title != "First Post" {
		t.Errorf("Title = %q, want First Post", post.Title)
	}
	if post.AuthorEmail.String != "author@example.com" {
		t.Errorf("AuthorEmail = %q, want author@example.com", post.AuthorEmail.String)
	}
}

func TestListPosts_SearchAndPagination(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := createTestUser(t, q, "author@example.com", "9876500011")
	base := time.Now().Add(-time.Hour)
	createTestPost(t, q, user.ID, "Community Meetup", model.PostStatusPublished, base)
	createTestPost(t, q, user.ID, "Harvest Festival", model.PostStatusPublished, base.Add(time.Minute))
	createTestPost(t, q, user.ID, "Draft Notes", model.PostStatusDraft, base.Add(2*time.Minute))

	// Only published posts are listed, newest first.
	posts, err := q.ListPosts(ctx, ListPostsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("len(posts) = %d, want 2", len(posts))
	}
	if posts[0].Title != "Harvest Festival" {
		t.Errorf("posts[0].Title = %q, want Harvest Festival", posts[0].Title)
	}

	// Case-insensitive search on title.
	found, err := q.ListPosts(ctx, ListPostsParams{Search: "meetup", Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts search: %v", err)
	}
	if len(found) != 1 || found[0].Title != "Community Meetup" {
		t.Errorf("search result = %+v, want Community Meetup", found)
	}

	n, err := q.CountPosts(ctx, "meetup")
	if err != nil {
		t.Fatalf("CountPosts: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	// Pagination.
	page2, err := q.ListPosts(ctx, ListPostsParams{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListPosts page 2: %v", err)
	}
	if len(page2) != 1 || page2[0].Title != "Community Meetup" {
		t.Errorf("page2 = %+v, want Community Meetup", page2)
	}
}

func TestSoftDeletePost(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := createTestUser(t, q, "author@example.com", "9876500012")
	post := createTestPost(t, q, user.ID, "Goner", model.PostStatusPublished, time.Now())

	if err := q.SoftDeletePost(ctx, post.ID, time.Now()); err != nil {
		t.Fatalf("SoftDeletePost: %v", err)
	}

	// Row survives but drops out of user listings.
	found, err := q.GetPostByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if found.Status != model.PostStatusDeleted {
		t.Errorf("Status = %q, want %q", found.Status, model.PostStatusDeleted)
	}

	mine, err := q.ListPostsByUser(ctx, user.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListPostsByUser: %v", err)
	}
	if len(mine) != 0 {
		t.Errorf("len(mine) = %d, want 0 after soft delete", len(mine))
	}
}

func TestIncrementPostViews(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := createTestUser(t, q, "author@example.com", "9876500013")
	post := createTestPost(t, q, user.ID, "Popular", model.PostStatusPublished, time.Now())

	for i := 0; i < 3; i++ {
		if err := q.IncrementPostViews(ctx, post.ID); err != nil {
			t.Fatalf("IncrementPostViews: %v", err)
		}
	}

	found, err := q.GetPostByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if found.ViewCount != 3 {
		t.Errorf("ViewCount = %d, want 3", found.ViewCount)
	}
}

// Token tests

func TestAuthTokenLifecycle(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := createTestUser(t, q, "tokens@example.com", "9876500020")

	now := time.Now()
	err := q.CreateAuthToken(ctx, CreateAuthTokenParams{
		UserID:    user.ID,
		TokenHash: "hash-access",
		Kind:      TokenKindAccess,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAuthToken: %v", err)
	}
	err = q.CreateAuthToken(ctx, CreateAuthTokenParams{
		UserID:    user.ID,
		TokenHash: "hash-refresh",
		Kind:      TokenKindRefresh,
		ExpiresAt: now.Add(24 * time.Hour),
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAuthToken refresh: %v", err)
	}

	found, err := q.GetAuthTokenByHash(ctx, "hash-access")
	if err != nil {
		t.Fatalf("GetAuthTokenByHash: %v", err)
	}
	if found.UserID != user.ID || found.Kind != TokenKindAccess {
		t.Errorf("token = %+v, want access token of user %d", found, user.ID)
	}

	if err := q.DeleteAuthTokensByUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteAuthTokensByUser: %v", err)
	}
	if _, err := q.GetAuthTokenByHash(ctx, "hash-refresh"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows after revoke, got %v", err)
	}
}

func TestDeleteExpiredAuthTokens(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := createTestUser(t, q, "expiry@example.com", "9876500021")

	now := time.Now()
	_ = q.CreateAuthToken(ctx, CreateAuthTokenParams{
		UserID: user.ID, TokenHash: "stale", Kind: TokenKindAccess,
		ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-2 * time.Hour),
	})
	_ = q.CreateAuthToken(ctx, CreateAuthTokenParams{
		UserID: user.ID, TokenHash: "fresh", Kind: TokenKindAccess,
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	})

	removed, err := q.DeleteExpiredAuthTokens(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredAuthTokens: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := q.GetAuthTokenByHash(ctx, "fresh"); err != nil {
		t.Errorf("fresh token should survive purge: %v", err)
	}
}

// Event tests

func TestCreateEvent(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	event, err := q.CreateEvent(ctx, CreateEventParams{
		Level:     model.EventLevelWarning,
		Category:  model.EventCategoryAuth,
		Message:   "login failed",
		Metadata:  "{}",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.ID == 0 {
		t.Error("event.ID should not be 0")
	}

	events, err := q.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 || events[0].Message != "login failed" {
		t.Errorf("events = %+v, want one login failed", events)
	}
}

func TestSeed(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	admin, err := q.GetUserByEmail(ctx, DefaultAdminEmail)
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", admin.Role, model.RoleAdmin)
	}

	counts, err := q.CountMasterData(ctx)
	if err != nil {
		t.Fatalf("CountMasterData: %v", err)
	}
	if counts.States == 0 || counts.Districts == 0 || counts.Tahsils == 0 || counts.Professions != 4 {
		t.Errorf("counts = %+v, want seeded master data with 4 professions", counts)
	}

	// Second seed should skip without duplicating.
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Second Seed: %v", err)
	}
	userCount, err := q.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if userCount != 1 {
		t.Errorf("userCount = %d, want 1 (seed should skip if exists)", userCount)
	}

	again, err := q.CountMasterData(ctx)
	if err != nil {
		t.Fatalf("CountMasterData: %v", err)
	}
	if again.States != counts.States {
		t.Errorf("states = %d, want %d (seed should skip if exists)", again.States, counts.States)
	}
}
