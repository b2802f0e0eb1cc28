package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
	"github.com/nottechincal/StuffedLamb-Final/internal/notify"
	cartsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/cart"
	ordersvc "github.com/nottechincal/StuffedLamb-Final/internal/service/order"
)

// toolTimeout bounds every tool call so a slow store surfaces as a failure
// instead of a hung webhook.
const toolTimeout = 10 * time.Second

type webhook struct {
	deps   Deps
	logger *log.Logger
}

// handle processes one webhook envelope: each tool call is dispatched
// independently and its result serialized back into the platform's expected
// shape. Tool-level failures become structured results, never HTTP errors.
func (w *webhook) handle(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := req.Message
	results := make([]toolResult, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		ctx, cancel := context.WithTimeout(c.Request.Context(), toolTimeout)
		out := w.dispatch(ctx, msg, tc)
		cancel()

		raw, err := json.Marshal(out)
		if err != nil {
			w.logger.Printf("webhook: encode result for %s: %v", tc.Function.Name, err)
			raw = []byte(`{"success":false,"error":"internal error"}`)
		}
		results = append(results, toolResult{ToolCallID: tc.ID, Result: string(raw)})
	}

	c.JSON(http.StatusOK, webhookResponse{Results: results})
}

func (w *webhook) dispatch(ctx context.Context, msg webhookMessage, tc toolCall) interface{} {
	name := tc.Function.Name
	args := tc.Function.Arguments

	var out interface{}
	var err error
	switch name {
	case "checkOpen":
		out = w.checkOpen()
	case "getCallerSmartContext":
		out, err = w.callerSmartContext(ctx, msg)
	case "quickAddItem":
		out, err = w.quickAddItem(ctx, msg, args)
	case "addMultipleItemsToCart":
		out, err = w.addMultipleItems(ctx, msg, args)
	case "getCartState":
		out, err = w.cartState(ctx, msg)
	case "removeCartItem":
		out, err = w.removeCartItem(ctx, msg, args)
	case "clearCart":
		out, err = w.clearCart(ctx, msg)
	case "editCartItem":
		out, err = w.editCartItem(ctx, msg, args)
	case "priceCart":
		out, err = w.priceCart(ctx, msg)
	case "convertItemsToCombos":
		out, err = w.convertToCombos(ctx, msg, args)
	case "getOrderSummary":
		out, err = w.orderSummary(ctx, msg)
	case "setPickupTime":
		out, err = w.setPickupTime(ctx, msg, args)
	case "estimateReadyTime":
		out, err = w.estimateReadyTime(ctx, msg)
	case "sendMenuLink":
		out, err = w.sendMenuLink(ctx, args)
	case "sendReceipt":
		out, err = w.sendReceipt(ctx, args)
	case "createOrder":
		out, err = w.createOrder(ctx, msg, args)
	case "repeatLastOrder":
		out, err = w.repeatLastOrder(ctx, msg, args)
	case "endCall":
		out, err = w.endCall(ctx, msg)
	default:
		err = domain.Validationf("unknown function: %s", name)
	}

	if err != nil {
		w.logger.Printf("webhook: %s failed: %v", name, err)
		return errorResult(err)
	}
	return out
}

// errorResult maps the error taxonomy onto a structured tool result. The
// errorType lets the assistant distinguish "fix your input" from "order
// state unknown".
func errorResult(err error) gin.H {
	res := gin.H{"success": false, "error": err.Error()}
	switch {
	case domain.IsPrecondition(err):
		var pe *domain.PreconditionError
		errors.As(err, &pe)
		res["errorType"] = "precondition"
		res["missing"] = pe.Missing
		if pe.Missing == "pickupTime" {
			res["requiresPickupTime"] = true
		}
	case domain.IsPersistence(err):
		res["errorType"] = "persistence"
	case domain.IsValidation(err):
		res["errorType"] = "validation"
	}
	return res
}

// mutateSession loads the session, applies fn and saves the result.
func (w *webhook) mutateSession(ctx context.Context, msg webhookMessage, fn func(sess *domain.Session) (interface{}, error)) (interface{}, error) {
	sess, err := w.deps.Sessions.GetForTurn(ctx, msg.callID(), msg.turnCount())
	if err != nil {
		return nil, err
	}
	out, err := fn(sess)
	if err != nil {
		return nil, err
	}
	if err := w.deps.Sessions.Save(ctx, sess.CallID, sess); err != nil {
		return nil, err
	}
	return out, nil
}

// readSession loads the session without saving; pure queries never extend
// or mutate state through the webhook layer.
func (w *webhook) readSession(ctx context.Context, msg webhookMessage) (*domain.Session, error) {
	return w.deps.Sessions.GetForTurn(ctx, msg.callID(), msg.turnCount())
}

func (w *webhook) checkOpen() gin.H {
	now := time.Now()
	if w.deps.Pickup.IsOpen(now) {
		return gin.H{"isOpen": true, "message": "We're open and ready to take your order!"}
	}
	return gin.H{
		"isOpen":  false,
		"message": fmt.Sprintf("Sorry, we're currently closed. We'll be open %s.", w.deps.Pickup.NextOpenTime(now)),
	}
}

func (w *webhook) callerSmartContext(ctx context.Context, msg webhookMessage) (interface{}, error) {
	number := notify.NormalizePhone(msg.callerNumber())
	if number == "" {
		return gin.H{"totalOrders": 0, "greeting": "Welcome to " + w.deps.Catalog.Business().Name + "! First time ordering?"}, nil
	}

	cust, err := w.deps.Orders.Customer(ctx, number)
	if err != nil {
		return nil, err
	}
	if cust == nil {
		return gin.H{
			"phoneNumber": number,
			"totalOrders": 0,
			"greeting":    "Welcome to " + w.deps.Catalog.Business().Name + "! First time ordering?",
		}, nil
	}
	return gin.H{
		"phoneNumber":   number,
		"totalOrders":   cust.TotalOrders,
		"lastOrderDate": cust.LastOrderDate.Format(time.RFC3339),
		"favoriteItems": cust.TopFavorites(3),
		"greeting":      fmt.Sprintf("Welcome back! You've ordered %d times.", cust.TotalOrders),
	}, nil
}

func (w *webhook) quickAddItem(ctx context.Context, msg webhookMessage, args json.RawMessage) (interface{}, error) {
	var spec cartsvc.ItemSpec
	if err := decodeArguments(args, &spec); err != nil {
		return nil, domain.Validationf("invalid item spec: %v", err)
	}
	return w.mutateSession(ctx, msg, func(sess *domain.Session) (interface{}, error) {
		res, err := w.deps.Cart.AddItem(sess, spec)
		if err != nil {
			return nil, err
		}
		sess.Metadata.LastAction = "addItem"
		return gin.H{"success": true, "message": res.Message, "item": res.Item, "itemIndex": res.Index}, nil
	})
}

func (w *webhook) addMultipleItems(ctx context.Context, msg webhookMessage, args json.RawMessage) (interface{}, error) {
	var params struct {
		Items []cartsvc.ItemSpec `json:"items"`
	}
	if err := decodeArguments(args, &params); err != nil {
		return nil, domain.Validationf("invalid items: %v", err)
	}
	return w.mutateSession(ctx, msg, func(sess *domain.Session) (interface{}, error) {
		res := w.deps.Cart.AddMultiple(sess, params.Items)
		sess.Metadata.LastAction = "addMultiple"
		return gin.H{
			"success": len(res.Errors) == 0,
			"count":   res.Count,
			"errors":  res.Errors,
			"message": res.Message,
		}, nil
	})
}

func (w *webhook) cartState(ctx context.Context, msg webhookMessage) (interface{}, error) {
	sess, err := w.readSession(ctx, msg)
	if err != nil {
		return nil, err
	}
	return w.deps.Cart.CartState(sess), nil
}

func (w *webhook) removeCartItem(ctx context.Context, msg webhookMessage, args json.RawMessage) (interface{}, error) {
	var params struct {
		ItemIndex int `json:"itemIndex"`
	}
	if err := decodeArguments(args, &params); err != nil {
		return nil, domain.Validationf("invalid index: %v", err)
	}
	return w.mutateSession(ctx, msg, func(sess *domain.Session) (interface{}, error) {
		res, err := w.deps.Cart.RemoveItem(sess, params.ItemIndex)
		if err != nil {
			return nil, err
		}
		return gin.H{"success": true, "removed": res.Removed, "message": res.Message}, nil
	})
}

func (w *webhook) clearCart(ctx context.Context, msg webhookMessage) (interface{}, error) {
	return w.mutateSession(ctx, msg, func(sess *domain.Session) (interface{}, error) {
		res := w.deps.Cart.ClearCart(sess)
		return gin.H{"success": true, "cleared": res.Cleared, "message": res.Message}, nil
	})
}

func (w *webhook) editCartItem(ctx context.Context, msg webhookMessage, args json.RawMessage) (interface{}, error) {
	var params struct {
		ItemIndex     int             `json:"itemIndex"`
		Modifications cartsvc.Changes `json:"modifications"`
	}
	if err := decodeArguments(args, &params); err != nil {
		return nil, domain.Validationf("invalid edit: %v", err)
	}
	return w.mutateSession(ctx, msg, func(sess *domain.Session) (interface{}, error) {
		res, err := w.deps.Cart.EditItem(sess, params.ItemIndex, params.Modifications)
		if err != nil {
			return nil, err
		}
		return gin.H{"success": true, "item": res.Item, "message": res.Message}, nil
	})
}

func (w *webhook) priceCart(ctx context.Context, msg webhookMessage) (interface{}, error) {
	sess, err := w.readSession(ctx, msg)
	if err != nil {
		return nil, err
	}
	p := w.deps.Pricing.PriceCart(sess.Cart)
	return gin.H{
		"subtotal":  notify.FormatCents(p.SubtotalCents),
		"gst":       notify.FormatCents(p.TaxCents),
		"total":     notify.FormatCents(p.TotalCents),
		"itemCount": p.ItemCount,
		"currency":  p.Currency,
		"pricing":   p,
	}, nil
}

func (w *webhook) convertToCombos(ctx context.Context, msg webhookMessage, args json.RawMessage) (interface{}, error) {
	var params struct {
		ItemIndexes []int  `json:"itemIndexes"`
		Drink       string `json:"drink"`
		Side        string `json:"side"`
	}
	if err := decodeArguments(args, &params); err != nil {
		return nil, domain.Validationf("invalid combo request: %v", err)
	}
	return w.mutateSession(ctx, msg, func(sess *domain.Session) (interface{}, error) {
		res, err := w.deps.Cart.ConvertToCombos(sess, params.ItemIndexes, params.Drink, params.Side)
		if err != nil {
			return nil, err
		}
		return gin.H{"success": true, "converted": res.Converted, "message": res.Message}, nil
	})
}

func (w *webhook) orderSummary(ctx context.Context, msg webhookMessage) (interface{}, error) {
	sess, err := w.readSession(ctx, msg)
	if err != nil {
		return nil, err
	}
	p := w.deps.Pricing.PriceCart(sess.Cart)

	var b strings.Builder
	b.WriteString("ORDER SUMMARY\n")
	for i, li := range sess.Cart {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, w.deps.Cart.FormatItem(li), notify.FormatCents(w.deps.Pricing.ItemPriceCents(li)))
	}
	fmt.Fprintf(&b, "Subtotal: %s\n", notify.FormatCents(p.SubtotalCents))
	fmt.Fprintf(&b, "GST (included): %s\n", notify.FormatCents(p.TaxCents))
	fmt.Fprintf(&b, "TOTAL: %s", notify.FormatCents(p.TotalCents))

	return gin.H{"summary": b.String(), "pricing": p, "itemCount": len(sess.Cart)}, nil
}

func (w *webhook) setPickupTime(ctx context.Context, msg webhookMessage, args json.RawMessage) (interface{}, error) {
	var params struct {
		RequestedTime string `json:"requestedTime"`
	}
	if err := decodeArguments(args, &params); err != nil {
		return nil, domain.Validationf("invalid pickup request: %v", err)
	}

	resolved := w.deps.Pickup.Resolve(params.RequestedTime, time.Now())
	if resolved == nil {
		// Ambiguous input is a failure result the assistant can turn into
		// a clarifying question, never an error.
		return gin.H{
			"success": false,
			"error":   `Please give me a specific time, like "6 PM" or "in 30 minutes"`,
		}, nil
	}

	return w.mutateSession(ctx, msg, func(sess *domain.Session) (interface{}, error) {
		sess.Metadata.PickupTime = resolved.FullTime
		sess.Metadata.PickupTimeISO = resolved.ISO
		return gin.H{
			"success":    true,
			"pickupTime": resolved.FullTime,
			"message":    fmt.Sprintf("Got it, %s", resolved.Display),
		}, nil
	})
}

func (w *webhook) estimateReadyTime(ctx context.Context, msg webhookMessage) (interface{}, error) {
	queueSize, err := w.deps.Orders.QueueSize(ctx)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "queue size", Err: err}
	}
	est := w.deps.Pickup.EstimateReadyTime(queueSize, time.Now())

	return w.mutateSession(ctx, msg, func(sess *domain.Session) (interface{}, error) {
		sess.Metadata.EstimatedReadyTime = est.FullTime
		sess.Metadata.EstimatedReadyTimeISO = est.ISO
		return gin.H{
			"estimatedMinutes": est.Minutes,
			"readyTime":        est.Display,
			"fullTime":         est.FullTime,
			"queueSize":        est.QueueSize,
			"message":          fmt.Sprintf("Should be ready around %s", est.Display),
		}, nil
	})
}

func (w *webhook) sendMenuLink(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := decodeArguments(args, &params); err != nil || params.PhoneNumber == "" {
		return nil, domain.Validationf("phone number required")
	}
	if err := w.deps.Notifier.SendMenuLink(ctx, notify.NormalizePhone(params.PhoneNumber)); err != nil {
		return nil, err
	}
	return gin.H{"success": true, "message": "Menu link sent"}, nil
}

func (w *webhook) sendReceipt(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := decodeArguments(args, &params); err != nil || params.PhoneNumber == "" {
		return nil, domain.Validationf("phone number required")
	}
	phone := notify.NormalizePhone(params.PhoneNumber)

	last, err := w.deps.Orders.LastOrder(ctx, phone)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return gin.H{"success": false, "error": "No recent orders found"}, nil
	}
	if err := w.deps.Notifier.SendReceipt(ctx, phone, last); err != nil {
		return nil, err
	}
	return gin.H{"success": true, "message": "Receipt sent"}, nil
}

func (w *webhook) createOrder(ctx context.Context, msg webhookMessage, args json.RawMessage) (interface{}, error) {
	var params struct {
		CustomerName  string `json:"customerName"`
		CustomerPhone string `json:"customerPhone"`
		Notes         string `json:"notes"`
	}
	if err := decodeArguments(args, &params); err != nil {
		return nil, domain.Validationf("invalid order details: %v", err)
	}

	sess, err := w.readSession(ctx, msg)
	if err != nil {
		return nil, err
	}

	pickupTime := sess.Metadata.PickupTime
	pickupISO := sess.Metadata.PickupTimeISO
	if pickupTime == "" {
		pickupTime = sess.Metadata.EstimatedReadyTime
		pickupISO = sess.Metadata.EstimatedReadyTimeISO
	}

	order, err := w.deps.Orders.Create(ctx, ordersvc.CreateInput{
		CustomerName:  params.CustomerName,
		CustomerPhone: notify.NormalizePhone(params.CustomerPhone),
		Cart:          sess.Cart,
		Pricing:       w.deps.Pricing.PriceCart(sess.Cart),
		PickupTime:    pickupTime,
		PickupTimeISO: pickupISO,
		Notes:         params.Notes,
	})
	if err != nil {
		return nil, err
	}

	// Notification failures never roll back the order.
	if nerr := w.deps.Notifier.SendReceipt(ctx, order.CustomerPhone, order); nerr != nil {
		w.logger.Printf("webhook: receipt for %s: %v", order.OrderNumber, nerr)
	}
	if nerr := w.deps.Notifier.NotifyShopNewOrder(ctx, order); nerr != nil {
		w.logger.Printf("webhook: shop alert for %s: %v", order.OrderNumber, nerr)
	}

	// The conversation's job is done: the session is destroyed, not reused.
	if derr := w.deps.Sessions.Delete(ctx, sess.CallID); derr != nil {
		w.logger.Printf("webhook: delete session %s: %v", sess.CallID, derr)
	}

	return gin.H{
		"success":     true,
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"total":       notify.FormatCents(order.Pricing.TotalCents),
		"pickupTime":  order.PickupTime,
		"message":     fmt.Sprintf("Order %s confirmed. %s, ready for pickup %s.", order.OrderNumber, notify.FormatCents(order.Pricing.TotalCents), order.PickupTime),
	}, nil
}

func (w *webhook) repeatLastOrder(ctx context.Context, msg webhookMessage, args json.RawMessage) (interface{}, error) {
	var params struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := decodeArguments(args, &params); err != nil {
		return nil, domain.Validationf("invalid request: %v", err)
	}
	phone := notify.NormalizePhone(params.PhoneNumber)
	if phone == "" {
		phone = notify.NormalizePhone(msg.callerNumber())
	}

	last, err := w.deps.Orders.LastOrder(ctx, phone)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return gin.H{"success": false, "error": "No previous orders found for that number"}, nil
	}

	return w.mutateSession(ctx, msg, func(sess *domain.Session) (interface{}, error) {
		sess.Cart = domain.CloneCart(last.Items)
		state := w.deps.Cart.CartState(sess)
		message := "Added your usual order"
		if state.Count > 1 {
			message = fmt.Sprintf("Added your usual - that's %d items", state.Count)
		}
		return gin.H{"success": true, "message": message, "items": state.Formatted}, nil
	})
}

func (w *webhook) endCall(ctx context.Context, msg webhookMessage) (interface{}, error) {
	if err := w.deps.Sessions.Delete(ctx, msg.callID()); err != nil {
		return nil, err
	}
	return gin.H{"success": true, "message": "Thanks for calling, see you soon!"}, nil
}
