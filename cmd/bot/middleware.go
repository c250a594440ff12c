package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/gorilla/mux"
	"github.com/mikastratmann187-source/botdd/cmd/bot/monitoring"
	"github.com/mikastratmann187-source/botdd/pkg/logging"
	"github.com/mikastratmann187-source/botdd/pkg/request"
	"github.com/mikastratmann187-source/botdd/pkg/ticketing"
	"golang.org/x/time/rate"
)

// commandProcessor is the processor for a single interaction. It must either
// respond to the interaction or return an error; the dispatcher guarantees
// the user always gets exactly one response.
type commandProcessor func(a IApp, i *discordgo.InteractionCreate) error

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(a IApp, handler Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path // If the route does not define a path, use the URL path.
			}
		} else {
			path = r.URL.Path // If the route is nil, use the URL path.
		}

		defer func() {
			// Run the deferred function after the request has been handled, as the status code will not be available until then.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// middlewareRateLimit rejects requests once the shared limiter is exhausted.
func middlewareRateLimit(a IApp, limiter *rate.Limiter, handler Controller) Controller {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			if err := json.NewEncoder(w).Encode(request.NewMessage("Too many requests")); err != nil {
				a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
			}
			return
		}
		handler(w, r)
	}
}

// interactionHandler dispatches every incoming interaction to its processor.
// Slash commands are keyed by command name, components by custom ID and
// modals by the custom ID prefix (the part before the first ':').
func interactionHandler(a IApp, commands, components, modals map[string]commandProcessor) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		var name string
		var processor commandProcessor
		var ok bool

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			name = i.ApplicationCommandData().Name
			processor, ok = commands[name]
		case discordgo.InteractionMessageComponent:
			name = i.MessageComponentData().CustomID
			processor, ok = components[name]
		case discordgo.InteractionModalSubmit:
			name, _, _ = strings.Cut(i.ModalSubmitData().CustomID, ":")
			processor, ok = modals[name]
		default:
			return
		}

		a.Log().Debug("Handling interaction " + name)

		if !ok {
			a.Log().Error("No processor found for interaction", slog.String("interaction", name))
			if err := respondSlashError(a, i); err != nil {
				a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
			}
			return
		}

		now := time.Now().UTC()
		err := processor(a, i)
		monitoring.InteractionDuration.WithLabelValues(name).Observe(time.Since(now).Seconds())
		if err == nil {
			return
		}

		switch {
		case ticketing.IsGuardRefusal(err):
			// Guard refusals are expected outcomes, not failures. Tell the
			// user why the action was refused.
			if err := respondEphemeral(a, i, guardMessage(err)); err != nil {
				a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
			}
		case isExpiredInteraction(err):
			// The token lapsed before we responded. Nothing useful can be
			// sent back, so just note it.
			a.Log().Warn(fmt.Sprintf("Interaction %s expired before response", name))
		default:
			a.Log().Error(fmt.Sprintf("Error processing interaction %s", name),
				slog.String(logging.KeyError, err.Error()))
			if err := respondSlashError(a, i); err != nil {
				a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
			}
		}
	}
}
