package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/DrCloy/web-spice-sub001/pkg/analysis"
	"github.com/DrCloy/web-spice-sub001/pkg/netlist"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code        simerr.Code `json:"code"`
	Message     string      `json:"message"`
	ComponentID string      `json:"componentId,omitempty"`
	NodeID      string      `json:"nodeId,omitempty"`
}

type DCRequest struct {
	Circuit netlist.Document `json:"circuit"`
	Sweeps  []analysis.Sweep `json:"sweeps" binding:"required,min=1,max=2"`
}

type DCResponse struct {
	Sweeps []analysis.Sweep      `json:"sweeps"`
	Points []analysis.SweepPoint `json:"points"`
}

// HandleSolve solves the operating point of the posted circuit document.
// The optional strategy and backend query parameters override the server
// defaults.
func HandleSolve(base ...analysis.Option) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts, err := requestOptions(c, base)
		if err != nil {
			writeError(c, err)
			return
		}

		doc, err := netlist.DecodeJSON(c.Request.Body)
		if err != nil {
			writeError(c, err)
			return
		}
		ckt, err := doc.Circuit()
		if err != nil {
			writeError(c, err)
			return
		}

		res, err := analysis.NewOP(opts...).Solve(c.Request.Context(), ckt)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func HandleDC(base ...analysis.Option) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts, err := requestOptions(c, base)
		if err != nil {
			writeError(c, err)
			return
		}

		var req DCRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, simerr.Wrap(simerr.ParseError, err, "invalid dc request"))
			return
		}
		ckt, err := req.Circuit.Circuit()
		if err != nil {
			writeError(c, err)
			return
		}

		dc := analysis.NewDCSweep(req.Sweeps, opts...)
		if err := dc.Setup(ckt); err != nil {
			writeError(c, err)
			return
		}
		if err := dc.Execute(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, DCResponse{Sweeps: dc.Sweeps(), Points: dc.Points()})
	}
}

func requestOptions(c *gin.Context, base []analysis.Option) ([]analysis.Option, error) {
	opts := append([]analysis.Option(nil), base...)
	if s := c.Query("strategy"); s != "" {
		strategy, err := analysis.ParseStrategy(s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithStrategy(strategy))
	}
	if b := c.Query("backend"); b != "" {
		backend, err := analysis.ParseBackend(b)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithBackend(backend))
	}
	return opts, nil
}

// statusFor maps input problems to 400 and circuits without a DC solution
// to 422.
func statusFor(code simerr.Code) int {
	switch code {
	case simerr.ParseError, simerr.InvalidCircuit, simerr.InvalidComponent,
		simerr.InvalidParameter, simerr.NoGround:
		return http.StatusBadRequest
	case simerr.FloatingNode, simerr.SingularMatrix, simerr.ConvergenceFailed:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Code:    simerr.ParseError,
			Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		})
		return
	}

	e, ok := simerr.As(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
		return
	}
	c.JSON(statusFor(e.Code), ErrorResponse{
		Code:        e.Code,
		Message:     err.Error(),
		ComponentID: e.ComponentID,
		NodeID:      e.NodeID,
	})
}
