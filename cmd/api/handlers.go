package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rakishiii/production-scheduler/internal/application"
	"github.com/Rakishiii/production-scheduler/internal/domain"
	"github.com/Rakishiii/production-scheduler/pkg/errors"
	"github.com/Rakishiii/production-scheduler/pkg/logging"
	"github.com/Rakishiii/production-scheduler/pkg/middleware"
)

func registerRoutes(api *gin.RouterGroup, service *application.ProductionApplicationService, logger *logging.Logger) {
	orders := api.Group("/orders")
	{
		orders.POST("", createOrderHandler(service, logger))
		orders.GET("", listOrdersHandler(service, logger))
		orders.GET("/:orderId", getOrderHandler(service, logger))
		orders.DELETE("/:orderId", deleteOrderHandler(service, logger))
		orders.POST("/:orderId/stages/:stage/complete", completeStageHandler(service, logger))
		orders.PUT("/:orderId/stages/:stage/progress", updateStageProgressHandler(service, logger))
	}

	api.GET("/schedule", getScheduleHandler(service, logger))
	api.GET("/dashboard", getDashboardHandler(service, logger))

	absences := api.Group("/absences")
	{
		absences.POST("", createAbsenceHandler(service, logger))
		absences.GET("", listAbsencesHandler(service, logger))
		absences.DELETE("/:absenceId", deleteAbsenceHandler(service, logger))
	}

	api.GET("/resources", listResourcesHandler(service))
	api.GET("/routing", getRoutingHandler(service))
}

// respond writes err as a structured error; unknown failures become 500
func respond(responder *middleware.ErrorResponder, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		responder.RespondWithAppError(appErr)
		return
	}
	responder.RespondInternalError(err)
}

func createOrderHandler(service *application.ProductionApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			CustomerName   string `json:"customerName" binding:"required,max=120,safe_string"`
			CabinetType    string `json:"cabinetType" binding:"required,max=60,safe_string"`
			Color          string `json:"color" binding:"required,max=60,safe_string"`
			Quantity       int    `json:"quantity" binding:"required,min=3,max=50"`
			CompletionDate string `json:"completionDate" binding:"required,iso_date"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		completion, _ := time.Parse(domain.DayLayout, req.CompletionDate)

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.cabinet_type": req.CabinetType,
			"order.quantity":     req.Quantity,
		})

		order, err := service.CreateOrder(c.Request.Context(), application.CreateOrderCommand{
			CustomerName:   req.CustomerName,
			CabinetType:    req.CabinetType,
			Color:          req.Color,
			Quantity:       req.Quantity,
			CompletionDate: completion,
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusCreated, order)
	}
}

func listOrdersHandler(service *application.ProductionApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		list, err := service.ListOrders(c.Request.Context(), application.ListOrdersQuery{Date: c.Query("date")})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, list)
	}
}

func getOrderHandler(service *application.ProductionApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		orderID := c.Param("orderId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.id": orderID,
		})

		order, err := service.GetOrder(c.Request.Context(), application.GetOrderQuery{OrderID: orderID, Date: c.Query("date")})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

func deleteOrderHandler(service *application.ProductionApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		orderID := c.Param("orderId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.id": orderID,
		})

		if err := service.DeleteOrder(c.Request.Context(), application.DeleteOrderCommand{OrderID: orderID}); err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "orderId": orderID})
	}
}

type stageParams struct {
	OrderID string `json:"orderId" validate:"required"`
	Stage   string `json:"stage" validate:"required,stage_name"`
}

func completeStageHandler(service *application.ProductionApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		params := stageParams{OrderID: c.Param("orderId"), Stage: c.Param("stage")}
		if appErr := middleware.ValidateStruct(params); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.id":    params.OrderID,
			"order.stage": params.Stage,
		})

		order, err := service.MarkStageComplete(c.Request.Context(), application.MarkStageCompleteCommand{
			OrderID: params.OrderID,
			Stage:   params.Stage,
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

func updateStageProgressHandler(service *application.ProductionApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		params := stageParams{OrderID: c.Param("orderId"), Stage: c.Param("stage")}
		if appErr := middleware.ValidateStruct(params); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		var req struct {
			Percent *float64 `json:"percent" binding:"required,percent"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.id":      params.OrderID,
			"order.stage":   params.Stage,
			"stage.percent": *req.Percent,
		})

		order, err := service.UpdateStageProgress(c.Request.Context(), application.UpdateStageProgressCommand{
			OrderID: params.OrderID,
			Stage:   params.Stage,
			Percent: *req.Percent,
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

func getScheduleHandler(service *application.ProductionApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		schedule, err := service.GetSchedule(c.Request.Context(), application.GetScheduleQuery{Date: c.Query("date")})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, schedule)
	}
}

func getDashboardHandler(service *application.ProductionApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		dashboard, err := service.GetDashboard(c.Request.Context(), application.GetDashboardQuery{Date: c.Query("date")})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, dashboard)
	}
}

func createAbsenceHandler(service *application.ProductionApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ResourceID string `json:"resourceId" binding:"required,resource_id"`
			Date       string `json:"date" binding:"required,iso_date"`
			Reason     string `json:"reason" binding:"max=200,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		date, _ := time.Parse(domain.DayLayout, req.Date)

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"absence.resource_id": req.ResourceID,
			"absence.date":        req.Date,
		})

		absence, err := service.CreateAbsence(c.Request.Context(), application.CreateAbsenceCommand{
			ResourceID: req.ResourceID,
			Date:       date,
			Reason:     req.Reason,
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusCreated, absence)
	}
}

func listAbsencesHandler(service *application.ProductionApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		absences, err := service.ListAbsences(c.Request.Context(), application.ListAbsencesQuery{ResourceID: c.Query("resourceId")})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"absences": absences, "total": len(absences)})
	}
}

func deleteAbsenceHandler(service *application.ProductionApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		absenceID := c.Param("absenceId")
		if err := service.DeleteAbsence(c.Request.Context(), application.DeleteAbsenceCommand{AbsenceID: absenceID}); err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "absenceId": absenceID})
	}
}

func listResourcesHandler(service *application.ProductionApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resources := service.ListResources()
		c.JSON(http.StatusOK, gin.H{"resources": resources, "total": len(resources)})
	}
}

func getRoutingHandler(service *application.ProductionApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, service.GetRouting())
	}
}
