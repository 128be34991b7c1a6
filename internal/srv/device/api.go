package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/vekimon/apimodel"
	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/jypelle/vekimon/internal/srv/event"
	"github.com/jypelle/vekimon/internal/tool"
	"github.com/sirupsen/logrus"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"
)

// StatusProvider returns a snapshot of the monitor state.
type StatusProvider func() apimodel.Status

type Api struct {
	eventChannel chan event.ApiEvent
	status       StatusProvider

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	param     config.ApiParam
	configDir string
}

func NewApi(param config.ApiParam, configDir string, status StatusProvider) *Api {
	api := Api{
		param:        param,
		configDir:    configDir,
		status:       status,
		eventChannel: make(chan event.ApiEvent),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						GlobalErrorAction(w, fmt.Sprintf("%v", rec), http.StatusInternalServerError)
					}
				}()

				if r.Header.Get("x-api-key") != param.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/status",
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(api.status()); err != nil {
				logrus.WithError(err).Warn("Unable to encode status")
			}
		}).Methods("GET")
	api.apiRouter.HandleFunc("/display/switch",
		func(w http.ResponseWriter, r *http.Request) {
			result := make(chan error, 1)
			select {
			case api.eventChannel <- event.ApiEvent{Result: result, Data: event.ApiEventDisplaySwitchData{}}:
			case <-r.Context().Done():
				ErrorStatusAction(w, r, http.StatusServiceUnavailable)
				return
			}

			var err error
			select {
			case err = <-result:
			case <-r.Context().Done():
				err = r.Context().Err()
			}

			switch {
			case err == nil:
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(apimodel.DisplaySwitch{DisplayOn: api.status().DisplayOn})
			case errors.Is(err, ErrInit):
				apimodel.DisplayUnavailableErrorMessage.SendError(w)
			default:
				GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
			}
		}).Methods("POST")

	headersOk := handlers.AllowedHeaders([]string{"x-api-key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(param.Port, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 120,
	}

	return &api
}

// Run serves the api until ctx is done. A listen failure is logged and
// leaves the other devices running.
func (d *Api) Run(ctx context.Context) error {
	logrus.Infof("Start api device")
	defer logrus.Infof("Stop api device")

	serveErr := make(chan error, 1)
	if d.param.Tls {
		certFile, keyFile, err := tool.EnsureCertificate(d.configDir, "vekimon server", []string{"localhost"})
		if err != nil {
			logrus.WithError(err).Error("Api disabled, no certificate")
			<-ctx.Done()
			return nil
		}
		go func() {
			serveErr <- d.server.ListenAndServeTLS(certFile, keyFile)
		}()
	} else {
		go func() {
			serveErr <- d.server.ListenAndServe()
		}()
	}

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Errorf("Api server on %s unavailable", d.server.Addr)
		}
		<-ctx.Done()
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Api shutdown")
	}
	return nil
}

func (d *Api) Handler() http.Handler {
	return d.server.Handler
}

func (d *Api) EventChannel() <-chan event.ApiEvent {
	return d.eventChannel
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	apimodel.ErrorMessage{ErrStatusCode: status, ErrMessage: title}.SendError(w)
}
