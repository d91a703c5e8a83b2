package stores

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-testboard-client/apiclient"
)

// unwrapList accepts either a bare JSON array or an object carrying the
// array under key. An empty response yields an empty list.
func unwrapList[T any](res apiclient.Result, key string) ([]T, error) {
	items := []T{}
	if res.NoBody {
		return items, nil
	}

	body := bytes.TrimSpace(res.Body)
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s envelope: %w", key, err)
	}
	raw, ok := envelope[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("response has no %q list", key)
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, nil
}

// decodeOne decodes a single record. ok is false for empty responses.
func decodeOne[T any](res apiclient.Result) (item T, ok bool, err error) {
	if res.NoBody {
		return item, false, nil
	}
	if err := res.Decode(&item); err != nil {
		return item, false, err
	}
	return item, true, nil
}

func normalizeProjects(res apiclient.Result) ([]Project, error) {
	return unwrapList[Project](res, "projects")
}

func normalizeVersions(res apiclient.Result) ([]Version, error) {
	return unwrapList[Version](res, "versions")
}

func normalizeTickets(res apiclient.Result) ([]Ticket, error) {
	return unwrapList[Ticket](res, "tickets")
}

func normalizeBugs(res apiclient.Result) ([]Bug, error) {
	return unwrapList[Bug](res, "bugs")
}

func normalizeCampaigns(res apiclient.Result) ([]Campaign, error) {
	return unwrapList[Campaign](res, "campaigns")
}

func normalizeEpics(res apiclient.Result) ([]Epic, error) {
	return unwrapList[Epic](res, "epics")
}

func normalizeFeatures(res apiclient.Result) ([]Feature, error) {
	return unwrapList[Feature](res, "features")
}

func normalizeScenarios(res apiclient.Result) ([]Scenario, error) {
	return unwrapList[Scenario](res, "scenarios")
}

func normalizeUsers(res apiclient.Result) ([]User, error) {
	return unwrapList[User](res, "users")
}

// The dashboard always answers with the envelope form.
func normalizeDashboard(res apiclient.Result) ([]DashboardProject, error) {
	return unwrapList[DashboardProject](res, "projects")
}
