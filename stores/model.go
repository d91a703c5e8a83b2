package stores

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a server-assigned record identifier. The API emits both numeric and
// string ids, so either form decodes.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type Project struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Versions    []Version `json:"versions,omitempty"`
}

func (p Project) key() ID { return p.ID }

type Version struct {
	ID          ID     `json:"id"`
	Version     string `json:"version"`
	Status      string `json:"status,omitempty"`
	Started     string `json:"started,omitempty"`
	EndForecast string `json:"end_forecast,omitempty"`
}

func (v Version) key() ID { return v.ID }

type Ticket struct {
	ID          ID     `json:"id"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
}

func (t Ticket) key() ID { return t.ID }

type Bug struct {
	ID          ID     `json:"id"`
	Version     string `json:"version"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Status      string `json:"status"`
	Criticality string `json:"criticality,omitempty"`
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
}

func (b Bug) key() ID { return b.ID }

type CampaignTicket struct {
	Reference string `json:"reference"`
	Summary   string `json:"summary,omitempty"`
	Status    string `json:"status,omitempty"`
}

type Campaign struct {
	ID          ID               `json:"id"`
	Version     string           `json:"version"`
	Occurrence  int              `json:"occurrence,omitempty"`
	Description string           `json:"description,omitempty"`
	Status      string           `json:"status,omitempty"`
	Tickets     []CampaignTicket `json:"tickets,omitempty"`
}

func (c Campaign) key() ID { return c.ID }

type Epic struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (e Epic) key() ID { return e.ID }

type Feature struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Filename    string `json:"filename,omitempty"`
	Tags        string `json:"tags,omitempty"`
}

func (f Feature) key() ID { return f.ID }

type Scenario struct {
	ID         ID     `json:"id"`
	ScenarioID string `json:"scenario_id"`
	Name       string `json:"name"`
	Steps      string `json:"steps,omitempty"`
	IsOutline  bool   `json:"is_outline,omitempty"`
}

func (s Scenario) key() ID { return s.ID }

type User struct {
	ID       ID       `json:"id"`
	Username string   `json:"username"`
	Scopes   []string `json:"scopes,omitempty"`
}

func (u User) key() ID { return u.ID }

type DashboardVersion struct {
	Version string `json:"version"`
	Status  string `json:"status"`
	Tickets int    `json:"tickets"`
	Bugs    int    `json:"bugs"`
}

// DashboardProject is a per-project summary; it is keyed by name.
type DashboardProject struct {
	Name     string             `json:"name"`
	Versions []DashboardVersion `json:"versions"`
}

func (d DashboardProject) key() ID { return ID(d.Name) }

type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type VersionInput struct {
	Version     string `json:"version"`
	Started     string `json:"started,omitempty"`
	EndForecast string `json:"end_forecast,omitempty"`
}

type TicketInput struct {
	Reference   string `json:"reference"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

// TicketUpdate sends only the fields that are set.
type TicketUpdate struct {
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Version     *string `json:"version,omitempty"`
}

type BugInput struct {
	Version     string `json:"version"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Status      string `json:"status,omitempty"`
	Criticality string `json:"criticality,omitempty"`
}

// BugUpdate sends only the fields that are set.
type BugUpdate struct {
	Version     *string `json:"version,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	Status      *string `json:"status,omitempty"`
	Criticality *string `json:"criticality,omitempty"`
}

type CampaignInput struct {
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

type UserInput struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Scopes   []string `json:"scopes,omitempty"`
}

// UserUpdate sends only the fields that are set.
type UserUpdate struct {
	Password *string  `json:"password,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
}

// BugFilters narrows FetchBugs; each set pair becomes a query parameter.
type BugFilters map[string]string

// ScenarioPage limits FetchScenarios. Zero values are not sent.
type ScenarioPage struct {
	Limit int
	Skip  int
}
