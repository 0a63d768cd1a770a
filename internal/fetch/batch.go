package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/azukiapp/tasks-service/internal/client"
	"github.com/azukiapp/tasks-service/internal/models"
)

// defaultRetryDelay is the wait before retrying failures that carried
// no retry-after hint.
const defaultRetryDelay = time.Second

// Result is the outcome of a batched fetch pass. RetryAfter is the
// largest server hint seen across the pass; zero when no request was
// rate limited.
type Result struct {
	Succeeded  []*models.Task
	Failed     []*models.Task
	RetryAfter time.Duration
}

type itemResult struct {
	task *models.Task
	err  error
}

// fetchAll drives the batch-retry state machine over refs: every item
// is pending, a pass moves it to succeeded or retryable, and retryable
// items go through another pass after the retry-after delay until none
// remain or their attempt budget is spent. Spent items land in
// Result.Failed with the error attached.
func (f *Fetcher) fetchAll(ctx context.Context, refs []models.Task, subtask bool) (Result, error) {
	pending := make([]*models.Task, 0, len(refs))
	for i := range refs {
		ref := refs[i]
		pending = append(pending, &ref)
	}

	attempts := make(map[string]int, len(pending))
	var final Result

	for len(pending) > 0 {
		pass := f.fetchBatches(ctx, pending, subtask)
		final.Succeeded = append(final.Succeeded, pass.Succeeded...)

		if err := ctx.Err(); err != nil {
			final.Failed = append(final.Failed, pass.Failed...)
			return final, err
		}

		var retryable []*models.Task
		for _, task := range pass.Failed {
			attempts[task.ID.String()]++
			if attempts[task.ID.String()] >= f.opts.MaxAttempts {
				f.log.Errorf("giving up on task %s after %d attempts: %s", task.ID, attempts[task.ID.String()], task.Err)
				final.Failed = append(final.Failed, task)
			} else {
				retryable = append(retryable, task)
			}
		}
		if len(retryable) == 0 {
			break
		}

		delay := pass.RetryAfter
		if delay <= 0 {
			delay = defaultRetryDelay
		}
		f.log.Debugf("      Retry %d tasks in %s", len(retryable), delay)
		if err := f.opts.Clock.Sleep(ctx, delay); err != nil {
			final.Failed = append(final.Failed, retryable...)
			return final, err
		}
		pending = retryable
	}

	return final, nil
}

// fetchBatches runs one pass over items in consecutive windows of the
// configured width. Windows are strictly sequential; within a window
// every fetch runs concurrently and the window settles fully before the
// next starts, so one item's failure never aborts its siblings.
// Cancellation is honored at window boundaries only; items the
// cancelled pass never attempted are reported failed, not dropped.
func (f *Fetcher) fetchBatches(ctx context.Context, items []*models.Task, subtask bool) Result {
	var out Result
	width := f.opts.BatchSize

	for start := 0; start < len(items); start += width {
		if err := ctx.Err(); err != nil {
			for _, item := range items[start:] {
				item.Err = err.Error()
				out.Failed = append(out.Failed, item)
			}
			break
		}

		end := min(start+width, len(items))
		batch := items[start:end]
		results := make([]itemResult, len(batch))

		var wg sync.WaitGroup
		for i, item := range batch {
			wg.Add(1)
			go func(i int, ref *models.Task) {
				defer wg.Done()
				task, err := f.fetchTask(ctx, ref, subtask)
				results[i] = itemResult{task: task, err: err}
			}(i, item)
		}
		wg.Wait()

		for i, res := range results {
			if res.err != nil {
				batch[i].Err = res.err.Error()
				if hint, ok := client.RetryAfterHint(res.err); ok && hint > out.RetryAfter {
					out.RetryAfter = hint
				}
				out.Failed = append(out.Failed, batch[i])
				continue
			}
			out.Succeeded = append(out.Succeeded, res.task)
		}
	}
	return out
}

// fetchTask pulls the task detail plus its activity entries, and for
// top-level tasks additionally its attachments and subtasks. Subtasks
// skip both recursions to bound the fetch cost.
func (f *Fetcher) fetchTask(ctx context.Context, ref *models.Task, subtask bool) (*models.Task, error) {
	f.log.Debugf("      Find task by id %s - %s", f.log.Highlight(ref.ID.String()), ref.Name)

	task, err := f.src.GetTask(ctx, ref.ID)
	if err != nil {
		return nil, err
	}

	if !subtask {
		attachments, err := f.src.GetAttachments(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		task.Attachments = attachments

		subtaskRefs, err := f.src.GetSubtasks(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		if len(subtaskRefs) > 0 {
			result, err := f.fetchAll(ctx, subtaskRefs, true)
			if err != nil {
				return nil, err
			}
			// terminal subtask failures stay in the tree, error attached
			task.Subtasks = append(result.Succeeded, result.Failed...)
		}
	}

	stories, err := f.src.GetStories(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	task.Stories = dropSystemEntries(stories)

	return task, nil
}

// dropSystemEntries filters machine-generated activity out of a task's
// story list.
func dropSystemEntries(entries []models.StoryEntry) []models.StoryEntry {
	kept := make([]models.StoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsSystem() {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}
