package router

import (
	"github.com/gin-gonic/gin"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/interfaces/http/handler"
	"github.com/tuition/backend/internal/interfaces/http/middleware"
)

// StudentRoutes are the per-student ledger endpoints. Capabilities are checked
// against the :id segment, so a student session only reaches its own ledger.
// replay guards the POSTs that create records; nil leaves them unguarded.
func StudentRoutes(h *handler.FeeHandler, replay gin.HandlerFunc) *Group {
	if replay == nil {
		replay = func(c *gin.Context) { c.Next() }
	}
	manage := middleware.RequireStudentCapability(identity.CapManageLedger, "id")
	view := middleware.RequireStudentCapability(identity.CapViewLedger, "id")
	pay := middleware.RequireStudentCapability(identity.CapRecordPayment, "id")

	return NewGroup("students", "/students/:id").
		POST("/fee-schedule", manage, replay, h.GenerateSchedule).
		DELETE("/fee-cycles/:cycle", manage, h.DeleteCycle).
		GET("/ledger", view, h.GetLedger).
		PUT("/ledger", manage, h.EditLedger).
		DELETE("/ledger", manage, h.DeleteLedger).
		POST("/payments", pay, replay, h.RecordPayment).
		GET("/payments", view, h.ListPayments)
}

// FeeRoutes are the portfolio-wide endpoints
func FeeRoutes(h *handler.FeeHandler) *Group {
	return NewGroup("fees", "/fees").
		GET("/summary", middleware.RequireCapability(identity.CapViewReports), h.Summary)
}

// SessionRoutes lets a caller end its own session
func SessionRoutes(h *handler.SessionHandler) *Group {
	return NewGroup("session", "/session").
		DELETE("", middleware.RequireCapability(identity.CapManageSession), h.Logout)
}
