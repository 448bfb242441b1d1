package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/user/moovie/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// 内存库每个连接相互独立
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepositories(db)
}

func seedMovie(t *testing.T, repos *Repositories, tmdbID int, title string, popularity float64, genres ...model.Genre) *model.Movie {
	t.Helper()
	ctx := context.Background()
	if err := repos.Genre.UpsertMany(ctx, genres); err != nil {
		t.Fatalf("upsert genres: %v", err)
	}
	m := &model.Movie{TMDBID: tmdbID, Title: title, Popularity: popularity, Genres: genres}
	if err := repos.Movie.Create(ctx, m); err != nil {
		t.Fatalf("create movie: %v", err)
	}
	return m
}

func seedUser(t *testing.T, repos *Repositories, email string) *model.User {
	t.Helper()
	u, err := repos.User.Create(context.Background(), email, email, "secret123")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

var (
	action = model.Genre{ID: 28, Name: "Action"}
	drama  = model.Genre{ID: 18, Name: "Drama"}
)

func TestUserRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	u := seedUser(t, repos, "neo@example.com")
	if u.Role != model.RoleUser {
		t.Errorf("Role = %q, want user", u.Role)
	}
	if u.PasswordHash == "secret123" {
		t.Fatal("password stored in plain text")
	}

	found, err := repos.User.FindByEmail(ctx, "neo@example.com")
	if err != nil || found == nil {
		t.Fatalf("FindByEmail: %v %v", found, err)
	}
	if !repos.User.CheckPassword(found, "secret123") {
		t.Error("CheckPassword should accept the right password")
	}
	if repos.User.CheckPassword(found, "wrong") {
		t.Error("CheckPassword should reject a wrong password")
	}

	missing, err := repos.User.FindByEmail(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("FindByEmail(missing) = %v, %v; want nil, nil", missing, err)
	}

	if _, err := repos.User.Create(ctx, "neo@example.com", "other", "x"); err == nil {
		t.Error("expected unique violation on duplicate email")
	}

	if err := repos.User.UpdateRole(ctx, 999, model.RoleAdmin); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateRole(missing) = %v, want ErrNotFound", err)
	}
}

func TestMovieRepository_ListAndFind(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	seedMovie(t, repos, 1, "Heat", 50, action, drama)
	seedMovie(t, repos, 2, "Die Hard", 80, action)
	seedMovie(t, repos, 3, "Manchester by the Sea", 10, drama)

	all, total, err := repos.Movie.List(ctx, MovieFilter{}, Page{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("total=%d len=%d, want 3", total, len(all))
	}
	if all[0].Title != "Die Hard" {
		t.Errorf("expected popularity ordering, first = %q", all[0].Title)
	}

	actionOnly, total, err := repos.Movie.List(ctx, MovieFilter{GenreID: 28}, Page{})
	if err != nil {
		t.Fatalf("List(genre): %v", err)
	}
	if total != 2 || len(actionOnly) != 2 {
		t.Errorf("genre filter: total=%d len=%d, want 2", total, len(actionOnly))
	}

	search, _, err := repos.Movie.List(ctx, MovieFilter{Query: "manchester"}, Page{})
	if err != nil {
		t.Fatalf("List(query): %v", err)
	}
	if len(search) != 1 || search[0].TMDBID != 3 {
		t.Errorf("search = %+v", search)
	}

	m, err := repos.Movie.FindByTMDBID(ctx, 1)
	if err != nil || m == nil {
		t.Fatalf("FindByTMDBID: %v %v", m, err)
	}
	if len(m.Genres) != 2 {
		t.Errorf("genres preloaded = %d, want 2", len(m.Genres))
	}

	none, err := repos.Movie.FindByID(ctx, 12345)
	if err != nil || none != nil {
		t.Errorf("FindByID(missing) = %v, %v", none, err)
	}
}

func TestMovieRepository_Delete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	u := seedUser(t, repos, "a@example.com")
	m := seedMovie(t, repos, 7, "Se7en", 1, drama)
	if err := repos.Rating.Upsert(ctx, &model.Rating{UserID: u.ID, MovieID: m.ID, Value: 9}); err != nil {
		t.Fatalf("rating: %v", err)
	}

	if err := repos.Movie.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := repos.Rating.Get(ctx, u.ID, m.ID); got != nil {
		t.Error("rating should be removed with the movie")
	}
	if err := repos.Movie.Delete(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestRatingRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	u := seedUser(t, repos, "r@example.com")
	heat := seedMovie(t, repos, 1, "Heat", 1, action, drama)
	up := seedMovie(t, repos, 2, "Up", 1)

	r := &model.Rating{UserID: u.ID, MovieID: heat.ID, Value: 7}
	if err := repos.Rating.Upsert(ctx, r); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	r2 := &model.Rating{UserID: u.ID, MovieID: heat.ID, Value: 9.5, Review: "better on rewatch"}
	if err := repos.Rating.Upsert(ctx, r2); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if r2.ID != r.ID {
		t.Errorf("upsert created a second row: %d vs %d", r2.ID, r.ID)
	}
	if err := repos.Rating.Upsert(ctx, &model.Rating{UserID: u.ID, MovieID: up.ID, Value: 6}); err != nil {
		t.Fatalf("Upsert up: %v", err)
	}

	list, total, err := repos.Rating.ListByUser(ctx, u.ID, Page{})
	if err != nil || total != 2 || len(list) != 2 {
		t.Fatalf("ListByUser: total=%d len=%d err=%v", total, len(list), err)
	}

	withGenres, err := repos.Rating.ListWithGenres(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListWithGenres: %v", err)
	}
	if len(withGenres) != 2 || withGenres[0].Movie == nil || len(withGenres[0].Movie.Genres) != 2 {
		t.Fatalf("ListWithGenres did not preload genres: %+v", withGenres)
	}
	if withGenres[0].Value != 9.5 {
		t.Errorf("value = %v, want 9.5", withGenres[0].Value)
	}
	if len(withGenres[1].Movie.Genres) != 0 {
		t.Errorf("movie without genres should have none")
	}

	stats, err := repos.Rating.StatsForMovie(ctx, heat.ID)
	if err != nil {
		t.Fatalf("StatsForMovie: %v", err)
	}
	if stats.Count != 1 || stats.Average != 9.5 {
		t.Errorf("stats = %+v", stats)
	}

	if err := repos.Rating.Delete(ctx, u.ID, up.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repos.Rating.Delete(ctx, u.ID, up.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete missing = %v, want ErrNotFound", err)
	}
}

func TestWatchStatusRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	u := seedUser(t, repos, "w@example.com")
	m := seedMovie(t, repos, 1, "Alien", 1)
	m2 := seedMovie(t, repos, 2, "Aliens", 1)

	ws := &model.WatchStatus{UserID: u.ID, MovieID: m.ID, Status: model.StatusWatched}
	if err := repos.WatchStatus.Upsert(ctx, ws); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if ws.WatchedAt == nil {
		t.Error("watched status should record WatchedAt")
	}

	ws2 := &model.WatchStatus{UserID: u.ID, MovieID: m.ID, Status: model.StatusWatching}
	if err := repos.WatchStatus.Upsert(ctx, ws2); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if ws2.WatchedAt != nil {
		t.Error("watching status should clear WatchedAt")
	}
	if err := repos.WatchStatus.Upsert(ctx, &model.WatchStatus{UserID: u.ID, MovieID: m2.ID, Status: model.StatusWantToWatch}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	watching, total, err := repos.WatchStatus.ListByUser(ctx, u.ID, model.StatusWatching, Page{})
	if err != nil || total != 1 || watching[0].Movie == nil || watching[0].Movie.Title != "Alien" {
		t.Fatalf("ListByUser(watching) = %+v, %d, %v", watching, total, err)
	}

	counts, err := repos.WatchStatus.CountByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if counts[model.StatusWatching] != 1 || counts[model.StatusWantToWatch] != 1 {
		t.Errorf("counts = %v", counts)
	}

	if err := repos.WatchStatus.Remove(ctx, u.ID, m.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, err := repos.WatchStatus.Get(ctx, u.ID, m.ID)
	if err != nil || got != nil {
		t.Errorf("Get after remove = %v, %v", got, err)
	}
}

func TestCollectionRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	owner := seedUser(t, repos, "o@example.com")
	other := seedUser(t, repos, "x@example.com")
	m := seedMovie(t, repos, 1, "Heat", 1)

	c := &model.Collection{UserID: owner.ID, Name: "Heists", IsPublic: true}
	if err := repos.Collection.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repos.Collection.AddMovie(ctx, owner.ID, c.ID, m.ID); err != nil {
		t.Fatalf("AddMovie: %v", err)
	}
	if err := repos.Collection.AddMovie(ctx, owner.ID, c.ID, m.ID); err != nil {
		t.Fatalf("AddMovie twice should be idempotent: %v", err)
	}
	if err := repos.Collection.AddMovie(ctx, other.ID, c.ID, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddMovie by non-owner = %v, want ErrNotFound", err)
	}

	got, err := repos.Collection.FindByID(ctx, c.ID)
	if err != nil || got == nil || len(got.Movies) != 1 {
		t.Fatalf("FindByID = %+v, %v", got, err)
	}

	c.Name = "Best heists"
	c.IsPublic = false
	if err := repos.Collection.Update(ctx, c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	public, err := repos.Collection.ListByUser(ctx, owner.ID, true)
	if err != nil || len(public) != 0 {
		t.Errorf("public list after making private = %v, %v", public, err)
	}

	if err := repos.Collection.RemoveMovie(ctx, owner.ID, c.ID, m.ID); err != nil {
		t.Fatalf("RemoveMovie: %v", err)
	}
	if err := repos.Collection.RemoveMovie(ctx, owner.ID, c.ID, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveMovie twice = %v, want ErrNotFound", err)
	}
	if err := repos.Collection.Delete(ctx, other.ID, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete by non-owner = %v, want ErrNotFound", err)
	}
	if err := repos.Collection.Delete(ctx, owner.ID, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestPersonRepository_Upsert(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	p := &model.Person{TMDBID: 500, Name: "Tom Cruise"}
	if err := repos.Person.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	again := &model.Person{TMDBID: 500, Name: "Thomas Cruise Mapother IV"}
	if err := repos.Person.Upsert(ctx, again); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if again.ID != p.ID {
		t.Errorf("upsert created a new person: %d vs %d", again.ID, p.ID)
	}

	m := &model.Movie{TMDBID: 954, Title: "Mission: Impossible", Credits: []model.Credit{
		{PersonID: p.ID, Kind: model.CreditCast, Character: "Ethan Hunt"},
	}}
	if err := repos.Movie.Create(ctx, m); err != nil {
		t.Fatalf("create movie: %v", err)
	}

	got, err := repos.Person.FindByID(ctx, p.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID: %v %v", got, err)
	}
	if got.Name != "Thomas Cruise Mapother IV" {
		t.Errorf("name not updated: %q", got.Name)
	}
	if len(got.Credits) != 1 || got.Credits[0].Movie == nil || got.Credits[0].Movie.TMDBID != 954 {
		t.Errorf("credits = %+v", got.Credits)
	}
}
