package syncer

import "context"

// Trigger requests a background sync when a session exists. It never
// blocks; requests made while one is already waiting are merged into it.
func (e *Engine) Trigger() {
	if e.Session() == nil {
		return
	}
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// Start runs the background worker until ctx is done or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		e.wg.Add(1)
		go e.loop(ctx)
	})
}

// Stop runs any still-waiting background request, then waits for the
// worker to exit.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
	e.wg.Wait()
}

func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stop:
			select {
			case <-e.kick:
				e.background(ctx)
			default:
			}
			return
		case <-e.kick:
			e.background(ctx)
		}
	}
}

// background runs one sync for a trigger. A trigger that joined an attempt
// already past its queue read is requested again while changes remain.
func (e *Engine) background(ctx context.Context) {
	shared, err := e.syncShared(ctx)
	if err != nil {
		if !isBackgroundNoise(err) {
			e.log.Debug(ctx, "background sync ended with error", "error", err)
		}
		return
	}
	if shared && e.Status().PendingCount > 0 {
		e.Trigger()
	}
}
