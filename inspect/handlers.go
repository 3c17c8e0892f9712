package inspect

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/injector/component"
	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/errors"
	"github.com/kbukum/injector/validation"
	"github.com/kbukum/injector/version"
)

// HealthChecker reports the health of the components behind the server.
type HealthChecker func(ctx context.Context) []component.Health

type healthResponse struct {
	Status     component.HealthStatus `json:"status"`
	Components []component.Health     `json:"components"`
}

type registrationsResponse struct {
	Count         int                   `json:"count"`
	Registrations []di.RegistrationInfo `json:"registrations"`
}

type validateResponse struct {
	Valid    bool               `json:"valid"`
	Problems []errors.ErrorBody `json:"problems,omitempty"`
}

type graphResponse struct {
	di.Graph
	Levels [][]di.Node `json:"levels"`
}

func abortWith(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}

func (s *Server) handleHealth(c *gin.Context) {
	var results []component.Health
	if s.health != nil {
		results = s.health(c.Request.Context())
	}
	if results == nil {
		results = []component.Health{}
	}
	resp := healthResponse{Status: component.Overall(results), Components: results}
	code := http.StatusOK
	if resp.Status == component.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}

func (s *Server) handleRegistrations(c *gin.Context) {
	kind := c.Query("kind")
	token := c.Query("token")
	if kind != "" {
		v := validation.New().OneOf("kind",
			kind, di.KindValue.String(), di.KindClass.String(), di.KindAlias.String())
		if appErr := v.Validate(); appErr != nil {
			abortWith(c, appErr)
			return
		}
	}

	out := []di.RegistrationInfo{}
	for _, info := range s.container.Registrations() {
		if kind != "" && info.Kind != kind {
			continue
		}
		if token != "" && info.Token != token {
			continue
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, registrationsResponse{Count: len(out), Registrations: out})
}

// handleRegistration matches the path parameter against token names and ids.
func (s *Server) handleRegistration(c *gin.Context) {
	token := c.Param("token")
	out := []di.RegistrationInfo{}
	for _, info := range s.container.Registrations() {
		if info.Token == token || info.TokenID == token {
			out = append(out, info)
		}
	}
	if len(out) == 0 {
		abortWith(c, errors.NotFound(token, di.Any.String()))
		return
	}
	c.JSON(http.StatusOK, registrationsResponse{Count: len(out), Registrations: out})
}

func (s *Server) handleValidate(c *gin.Context) {
	if err := s.container.Validate(); err != nil {
		c.JSON(http.StatusConflict, validateResponse{Valid: false, Problems: problemBodies(err)})
		return
	}
	c.JSON(http.StatusOK, validateResponse{Valid: true})
}

// handleGraph serves nodes, edges and construction levels. Levels need a
// valid graph, so problems are reported like /validate.
func (s *Server) handleGraph(c *gin.Context) {
	levels, err := s.container.Levels()
	if err != nil {
		c.JSON(http.StatusConflict, validateResponse{Valid: false, Problems: problemBodies(err)})
		return
	}
	c.JSON(http.StatusOK, graphResponse{Graph: s.container.Graph(), Levels: levels})
}

// problemBodies flattens a validation error into response bodies.
func problemBodies(err error) []errors.ErrorBody {
	problems := []error{err}
	var verr *di.ValidationError
	if stderrors.As(err, &verr) {
		problems = verr.Problems
	}

	bodies := make([]errors.ErrorBody, 0, len(problems))
	for _, p := range problems {
		appErr, ok := errors.AsAppError(p)
		if !ok {
			appErr = errors.Internal(p)
		}
		bodies = append(bodies, appErr.ToResponse().Error)
	}
	return bodies
}
