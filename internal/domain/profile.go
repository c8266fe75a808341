package domain

import "encoding/json"

// Catalog attribute keys shared by the dataset exports and the API.
const (
	ProfileIDKey       = "_unique_id"
	ProfileNameKey     = "name"
	ProfileCategoryKey = "category"
	ProjectNameKey     = "NOM"
	ProjectTypeKey     = "type"
)

// Researcher is a lab member as stored in the local profile catalog.
// Details carries the free-form attributes of the source dataset and is
// rendered flat, next to the identity fields.
type Researcher struct {
	ID       string
	Name     string
	Category string
	Details  map[string]any
}

// MarshalJSON renders the researcher as one flat object.
func (r Researcher) MarshalJSON() ([]byte, error) {
	out := copyDetails(r.Details, 3)
	out[ProfileIDKey] = r.ID
	out[ProfileNameKey] = r.Name
	out[ProfileCategoryKey] = r.Category
	return json.Marshal(out)
}

// Project is a lab project as stored in the local profile catalog. Type is
// the dataset group the project was listed under (national, international).
type Project struct {
	ID      string
	Name    string
	Type    string
	Details map[string]any
}

// MarshalJSON renders the project as one flat object.
func (p Project) MarshalJSON() ([]byte, error) {
	out := copyDetails(p.Details, 3)
	out[ProfileIDKey] = p.ID
	out[ProjectNameKey] = p.Name
	out[ProjectTypeKey] = p.Type
	return json.Marshal(out)
}

func copyDetails(details map[string]any, extra int) map[string]any {
	out := make(map[string]any, len(details)+extra)
	for k, v := range details {
		out[k] = v
	}
	return out
}
