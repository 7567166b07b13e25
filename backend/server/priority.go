package server

import (
	"net/http"

	"nightsafe/backend/priority"
	"nightsafe/backend/server/api"

	"github.com/gin-gonic/gin"
)

func GetPriority(c *gin.Context) {
	var args api.PriorityArgs
	if !bindArgs(c, &args) || !checkVersion(c, args.Version) {
		return
	}
	if args.Severity < 1 || args.Severity > 5 {
		fail(c, errInvalidSeverity)
		return
	}
	score := priority.Score(args.Severity, args.ConfirmationsCount, args.AffectedGroups)
	c.IndentedJSON(http.StatusOK, &api.PriorityResponse{ // 200
		Score: score,
		Badge: priority.BadgeFor(score),
	})
}
