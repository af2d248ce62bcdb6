package middleware

import (
	"context"
	"regexp"
	"strings"

	"github.com/datapadi/web/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

var versionSegment = regexp.MustCompile(`^[vV][0-9]+$`)

// Profiling labels the CPU samples taken while serving a request with its
// method, route and API area, so a flame graph can be cut down to
// /api/v1/vouchers/export alone. Health checks and skip paths go unlabelled.
func Profiling(skip ...string) gin.HandlerFunc {
	unlabelled := map[string]struct{}{"/health": {}}
	for _, p := range skip {
		unlabelled[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := unlabelled[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) map[string]string {
	route := c.FullPath()
	return map[string]string{
		telemetry.ProfilingLabelMethod:    c.Request.Method,
		telemetry.ProfilingLabelRoute:     route,
		telemetry.ProfilingLabelOperation: routeArea(route),
	}
}

// routeArea is the first static segment after the /api/vN prefix
func routeArea(route string) string {
	for _, seg := range strings.FieldsFunc(route, func(r rune) bool { return r == '/' }) {
		if seg == "api" || versionSegment.MatchString(seg) || strings.HasPrefix(seg, ":") {
			continue
		}
		return seg
	}
	return ""
}
