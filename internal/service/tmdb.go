package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/user/moovie/internal/logging"
	"github.com/user/moovie/internal/metrics"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/repository"
	"github.com/user/moovie/internal/tmdb"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	maxImportedCast = 15
	importTimeout   = time.Minute
)

// 需要保留的幕后职位
var importedCrewJobs = map[string]bool{
	"Director":   true,
	"Screenplay": true,
	"Writer":     true,
	"Producer":   true,
}

var (
	ErrEmptyBatch    = errors.New("no tmdb ids given")
	ErrBatchTooLarge = errors.New("too many tmdb ids in one batch")
)

// MovieSource 导入所需的 TMDB 接口
type MovieSource interface {
	MovieDetails(ctx context.Context, id int) (*tmdb.MovieDetails, error)
	Genres(ctx context.Context) ([]tmdb.Genre, error)
}

// ImportOutcome 单部电影的导入结果，Created 为 false 表示库里已存在
type ImportOutcome struct {
	Movie   *model.Movie `json:"movie"`
	Created bool         `json:"created"`
}

type BulkFailure struct {
	TMDBID int    `json:"tmdb_id"`
	Error  string `json:"error"`
}

// BulkImportResult 批量导入汇总，各列表保持请求顺序
type BulkImportResult struct {
	Imported []int         `json:"imported"`
	Skipped  []int         `json:"skipped"`
	Failed   []BulkFailure `json:"failed"`
}

type TMDBService struct {
	repos       *repository.Repositories
	source      MovieSource
	maxBatch    int
	concurrency int
	group       singleflight.Group
}

func NewTMDBService(repos *repository.Repositories, source MovieSource, maxBatch, concurrency int) *TMDBService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &TMDBService{
		repos:       repos,
		source:      source,
		maxBatch:    maxBatch,
		concurrency: concurrency,
	}
}

// Import 按 TMDB ID 导入电影，同一 ID 的并发请求只会抓取一次。
// 共享的导入不随任何一个调用方取消，调用方自己的 ctx 结束时只是不再等待。
func (s *TMDBService) Import(ctx context.Context, tmdbID int) (*ImportOutcome, error) {
	ch := s.group.DoChan(strconv.Itoa(tmdbID), func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), importTimeout)
		defer cancel()
		return s.importOne(shared, tmdbID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ImportOutcome), nil
	}
}

func (s *TMDBService) importOne(ctx context.Context, tmdbID int) (out *ImportOutcome, err error) {
	defer func() {
		switch {
		case err != nil:
			metrics.ImportedMovies.WithLabelValues("failed").Inc()
		case out.Created:
			metrics.ImportedMovies.WithLabelValues("imported").Inc()
		default:
			metrics.ImportedMovies.WithLabelValues("skipped").Inc()
		}
	}()

	existing, err := s.repos.Movie.FindByTMDBID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ImportOutcome{Movie: existing, Created: false}, nil
	}

	details, err := s.source.MovieDetails(ctx, tmdbID)
	if err != nil {
		return nil, fmt.Errorf("fetch tmdb movie %d: %w", tmdbID, err)
	}

	var movieID uint
	err = s.repos.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		movie, err := s.buildMovie(ctx, repos, details)
		if err != nil {
			return err
		}
		if err := repos.Movie.Create(ctx, movie); err != nil {
			return err
		}
		movieID = movie.ID
		return nil
	})
	if err != nil {
		// 其他实例可能刚刚导入了同一部电影
		if again, findErr := s.repos.Movie.FindByTMDBID(ctx, tmdbID); findErr == nil && again != nil {
			return &ImportOutcome{Movie: again, Created: false}, nil
		}
		return nil, fmt.Errorf("save tmdb movie %d: %w", tmdbID, err)
	}

	movie, err := s.repos.Movie.FindByID(ctx, movieID)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Int("tmdb_id", tmdbID).Uint("movie_id", movieID).Str("title", details.Title).Msg("movie imported")
	return &ImportOutcome{Movie: movie, Created: true}, nil
}

// buildMovie 写入类型和人物，返回待创建的电影
func (s *TMDBService) buildMovie(ctx context.Context, repos *repository.Repositories, d *tmdb.MovieDetails) (*model.Movie, error) {
	genres := make([]model.Genre, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, model.Genre{ID: g.ID, Name: g.Name})
	}
	if err := repos.Genre.UpsertMany(ctx, genres); err != nil {
		return nil, fmt.Errorf("upsert genres: %w", err)
	}

	cast := append([]tmdb.CastMember(nil), d.Credits.Cast...)
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })
	if len(cast) > maxImportedCast {
		cast = cast[:maxImportedCast]
	}

	people := make(map[int]uint)
	personID := func(tmdbID int, name, profile, dept string) (uint, error) {
		if id, ok := people[tmdbID]; ok {
			return id, nil
		}
		p := &model.Person{TMDBID: tmdbID, Name: name, ProfilePath: profile, KnownForDepartment: dept}
		if err := repos.Person.Upsert(ctx, p); err != nil {
			return 0, fmt.Errorf("upsert person %d: %w", tmdbID, err)
		}
		people[tmdbID] = p.ID
		return p.ID, nil
	}

	var credits []model.Credit
	for _, c := range cast {
		id, err := personID(c.ID, c.Name, c.ProfilePath, c.KnownForDepartment)
		if err != nil {
			return nil, err
		}
		credits = append(credits, model.Credit{PersonID: id, Kind: model.CreditCast, Character: c.Character, Order: c.Order})
	}
	order := 0
	for _, c := range d.Credits.Crew {
		if !importedCrewJobs[c.Job] {
			continue
		}
		id, err := personID(c.ID, c.Name, c.ProfilePath, c.KnownForDepartment)
		if err != nil {
			return nil, err
		}
		credits = append(credits, model.Credit{PersonID: id, Kind: model.CreditCrew, Job: c.Job, Order: order})
		order++
	}

	return &model.Movie{
		TMDBID:        d.ID,
		IMDbID:        d.IMDbID,
		Title:         d.Title,
		OriginalTitle: d.OriginalTitle,
		Overview:      d.Overview,
		Tagline:       d.Tagline,
		ReleaseDate:   d.ReleaseDate,
		Runtime:       d.Runtime,
		PosterPath:    d.PosterPath,
		BackdropPath:  d.BackdropPath,
		VoteAverage:   d.VoteAverage,
		VoteCount:     d.VoteCount,
		Popularity:    d.Popularity,
		Genres:        genres,
		Credits:       credits,
	}, nil
}

type bulkOutcome struct {
	created bool
	err     error
}

// BulkImport 批量导入，ID 去重后并发执行，单个失败不影响其余
func (s *TMDBService) BulkImport(ctx context.Context, ids []int) (*BulkImportResult, error) {
	unique := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.maxBatch > 0 && len(unique) > s.maxBatch {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(unique), s.maxBatch)
	}

	outcomes := make([]bulkOutcome, len(unique))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range unique {
		i, id := i, id
		g.Go(func() error {
			if id <= 0 {
				outcomes[i] = bulkOutcome{err: errors.New("invalid tmdb id")}
				return nil
			}
			out, err := s.Import(ctx, id)
			if err != nil {
				outcomes[i] = bulkOutcome{err: err}
				return nil
			}
			outcomes[i] = bulkOutcome{created: out.Created}
			return nil
		})
	}
	g.Wait()

	result := &BulkImportResult{Imported: []int{}, Skipped: []int{}, Failed: []BulkFailure{}}
	for i, o := range outcomes {
		id := unique[i]
		switch {
		case o.err != nil:
			result.Failed = append(result.Failed, BulkFailure{TMDBID: id, Error: o.err.Error()})
		case o.created:
			result.Imported = append(result.Imported, id)
		default:
			result.Skipped = append(result.Skipped, id)
		}
	}

	logging.Ctx(ctx).Info().Int("requested", len(unique)).Int("imported", len(result.Imported)).
		Int("skipped", len(result.Skipped)).Int("failed", len(result.Failed)).Msg("bulk import finished")
	return result, nil
}

// SyncGenres 同步 TMDB 类型表，返回写入条数
func (s *TMDBService) SyncGenres(ctx context.Context) (int, error) {
	list, err := s.source.Genres(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch tmdb genres: %w", err)
	}
	genres := make([]model.Genre, 0, len(list))
	for _, g := range list {
		genres = append(genres, model.Genre{ID: g.ID, Name: g.Name})
	}
	if err := s.repos.Genre.UpsertMany(ctx, genres); err != nil {
		return 0, err
	}
	return len(genres), nil
}
