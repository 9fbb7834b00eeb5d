package dataloader

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/source"
)

// CountResult - результат подсчета комментариев одного поста.
type CountResult struct {
	Count int
	Err   error
}

// CommentCounts получает количество комментариев для многих постов через батчевый загрузчик.
// Источник, реализующий source.CommentCounter, опрашивается один раз на батч;
// для остальных делается по одному параллельному вызову ListComments на пост.
type CommentCounts struct {
	loader *dataloader.Loader
}

// NewCommentCounts создает загрузчик поверх src. Загрузчик кэширует по ключу,
// поэтому создаем новый на каждую загрузку ленты.
func NewCommentCounts(src source.Source) *CommentCounts {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]domain.PostID, len(keys))
		for i, key := range keys {
			ids[i] = key.Raw().(domain.PostID)
		}

		if counter, ok := src.(source.CommentCounter); ok {
			return countBatched(ctx, counter, ids)
		}
		return countEach(ctx, src, ids)
	}

	return &CommentCounts{
		loader: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond)),
	}
}

func countBatched(ctx context.Context, counter source.CommentCounter, ids []domain.PostID) []*dataloader.Result {
	results := make([]*dataloader.Result, len(ids))

	counts, err := counter.CountComments(ctx, ids)
	if err != nil {
		for i := range results {
			results[i] = &dataloader.Result{Error: err}
		}
		return results
	}

	for i, id := range ids {
		results[i] = &dataloader.Result{Data: counts[id]}
	}
	return results
}

// countEach запускает по одному запросу на пост. Результаты идут в том же
// порядке, что и ids, в каком бы порядке ни завершились запросы.
func countEach(ctx context.Context, src source.Source, ids []domain.PostID) []*dataloader.Result {
	results := make([]*dataloader.Result, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id domain.PostID) {
			defer wg.Done()
			comments, err := src.ListComments(ctx, id)
			if err != nil {
				results[i] = &dataloader.Result{Error: err}
				return
			}
			results[i] = &dataloader.Result{Data: len(comments)}
		}(i, id)
	}
	wg.Wait()

	return results
}

type postKey domain.PostID

func (k postKey) String() string   { return strconv.FormatInt(int64(k), 10) }
func (k postKey) Raw() interface{} { return domain.PostID(k) }

// Load получает количество комментариев для каждого id и ждет все результаты.
// В возвращаемой мапе по одной записи на каждый уникальный id.
func (c *CommentCounts) Load(ctx context.Context, ids []domain.PostID) map[domain.PostID]CountResult {
	thunks := make([]dataloader.Thunk, len(ids))
	for i, id := range ids {
		thunks[i] = c.loader.Load(ctx, postKey(id))
	}

	out := make(map[domain.PostID]CountResult, len(ids))
	for i, thunk := range thunks {
		v, err := thunk()
		if err != nil {
			out[ids[i]] = CountResult{Err: err}
			continue
		}
		n, _ := v.(int)
		out[ids[i]] = CountResult{Count: n}
	}
	return out
}
