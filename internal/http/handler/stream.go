package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"printconnect/internal/changefeed"
	"printconnect/internal/dashboard"
	"printconnect/internal/http/middleware"
	"printconnect/internal/logger"
	"printconnect/internal/service"
)

// writeSSE writes one server-sent event and flushes it to the client.
func writeSSE(w *bufio.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}

// StreamJobs mounts a dashboard view for the caller and streams every applied
// listing as a "snapshot" event. The view is closed when the client goes away.
//
// @Summary  Live job listing
// @Tags     jobs
// @Security BearerAuth
// @Produce  text/event-stream
// @Param    status       query string false "status filter"
// @Param    q            query string false "search text"
// @Param    access_token query string false "bearer token for EventSource clients"
// @Success  200 {object} dashboard.Snapshot
// @Router   /jobs/stream [get]
func StreamJobs(lister dashboard.Lister, feed changefeed.Subscriber, keepalive time.Duration) fiber.Handler {
	if keepalive <= 0 {
		keepalive = 25 * time.Second
	}
	return func(c *fiber.Ctx) error {
		actor := middleware.IdentityFromCtx(c)
		view, err := dashboard.Mount(c.UserContext(), lister, feed, actor, service.JobFilter{
			Status: c.Query("status"),
			Search: c.Query("q"),
		}, dashboard.Options{Logger: logger.Get()})
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		log := logger.FromContext(c.UserContext(), logger.Component("http"))
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer view.Close()
			ticker := time.NewTicker(keepalive)
			defer ticker.Stop()

			for {
				select {
				case snap, ok := <-view.Updates():
					if !ok {
						return
					}
					if err := writeSSE(w, "snapshot", snap); err != nil {
						log.Debug().Err(err).Msg("job stream closed")
						return
					}
				case <-ticker.C:
					if _, err := w.WriteString(": keepalive\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						log.Debug().Err(err).Msg("job stream closed")
						return
					}
				}
			}
		}))
		return nil
	}
}
