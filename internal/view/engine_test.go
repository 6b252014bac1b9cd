package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/models"
)

type testUser struct {
	Name    string
	IsAdmin bool
}

func strPtr(v string) *string {
	return &v
}

func loadedEngine(t *testing.T) *Engine {
	t.Helper()
	engine := New()
	require.NoError(t, engine.Load())
	return engine
}

func TestEngineRendersActivityDetail(t *testing.T) {
	engine := loadedEngine(t)

	activity := models.Activity{
		ID:          3,
		Name:        "Weld fixture",
		Priority:    models.PriorityHigh,
		Status:      models.StatusStarted,
		CostCenter:  "CC-10",
		Responsible: "Ana Lima",
		Notes:       strPtr("line one\n<script>alert(1)</script>line two"),
		Attachment:  strPtr("act_1.png"),
		CreatedAt:   time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		History: []models.HistoryEntry{
			{Field: "Status", OldValue: strPtr("Started"), NewValue: strPtr("Completed"), ModifiedBy: "Bruno"},
		},
	}

	var out bytes.Buffer
	err := engine.Render(&out, "activity_detail", map[string]interface{}{
		"Title":    activity.Name,
		"User":     &testUser{Name: "Ana Lima", IsAdmin: true},
		"Activity": activity,
	})
	require.NoError(t, err)

	html := out.String()
	require.Contains(t, html, "#3 Weld fixture")
	require.Contains(t, html, "line one<br>")
	require.NotContains(t, html, "<script>")
	require.Contains(t, html, "/activities/3/delete")
	require.Contains(t, html, `src="/uploads/activities/act_1.png"`)
	require.Contains(t, html, "Completed")
	require.Contains(t, html, "Log out")
}

func TestEngineHidesDeleteForRegularUsers(t *testing.T) {
	engine := loadedEngine(t)

	var out bytes.Buffer
	err := engine.Render(&out, "activity_detail", map[string]interface{}{
		"User":     &testUser{Name: "Bruno"},
		"Activity": models.Activity{ID: 4, Name: "Paint"},
	})
	require.NoError(t, err)
	require.NotContains(t, out.String(), "/activities/4/delete")
}

func TestEngineRendersEveryPage(t *testing.T) {
	engine := loadedEngine(t)
	user := &testUser{Name: "Ana"}
	delivery := datatypes.Date(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC))
	order := models.ProductionOrder{ID: 1, Name: "Frame batch", ExpectedDeliveryDate: &delivery, CreatedBy: "Ana"}

	pages := map[string]map[string]interface{}{
		"login":      {"Next": "/activities", "Login": "ana", "Flashes": []map[string]string{{"Category": "danger", "Message": "Invalid login or password."}}},
		"index":      {"User": user, "Activities": []models.Activity{{ID: 1, Name: "Weld"}}, "Orders": []models.ProductionOrder{order}},
		"activities": {"User": user, "Board": dto.ActivityBoard{InProgress: []models.Activity{{ID: 1, Name: "Weld"}}}},
		"activity_form": {
			"User": user, "Title": "New activity", "Action": "/activities/new", "Cancel": "/activities",
			"Priorities": models.Priorities, "Form": dto.ActivityUpdateRequest{Priority: strPtr(models.PriorityLow)},
		},
		"orders":       {"User": user, "Orders": []models.ProductionOrder{order}},
		"order_form":   {"User": user, "Title": "New production order", "Form": dto.ProductionOrderRequest{}},
		"order_detail": {"User": user, "Order": order},
		"error":        {"Status": 404, "Message": "Not found"},
	}

	for name, data := range pages {
		var out bytes.Buffer
		require.NoError(t, engine.Render(&out, name, data), name)
		require.True(t, strings.HasPrefix(out.String(), "<!doctype html>"), name)
	}

	var out bytes.Buffer
	require.NoError(t, engine.Render(&out, "orders", pages["orders"]))
	require.Contains(t, out.String(), "15/07/2024")

	out.Reset()
	require.NoError(t, engine.Render(&out, "login", pages["login"]))
	require.Contains(t, out.String(), "alert-danger")
	require.NotContains(t, out.String(), "Log out")

	require.Error(t, engine.Render(&out, "missing", nil))
}

func TestRichTextAndDeref(t *testing.T) {
	engine := New()
	require.Equal(t, "", string(engine.richText(nil)))
	require.Equal(t, "a &lt; b<br>c", string(engine.richText(strPtr("a < b\r\nc"))))
	require.Equal(t, "x", deref(strPtr("x")))
	require.Equal(t, "", deref((*string)(nil)))
	require.True(t, isImage(strPtr("photo.JPG")))
	require.False(t, isImage("drawing.pdf"))
}
