package entities

// MentorProfile is a document of the mentor search index.
type MentorProfile struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	Organisation  string   `json:"organisation"`
	School        string   `json:"school"`
	CourseOfStudy string   `json:"course_of_study"`
	WaveID        string   `json:"wave_id"`
	Industries    []string `json:"industries"`
}

// MentorProfileFields lists the profile fields that can be counted.
var MentorProfileFields = []string{"course_of_study", "industries", "organisation", "role", "school", "wave_id"}

// FieldValues returns the values of a profile field. List fields are exploded
// and blank scalar fields yield nothing.
func (m MentorProfile) FieldValues(field string) ([]string, bool) {
	var v string
	switch field {
	case "industries":
		return m.Industries, true
	case "course_of_study":
		v = m.CourseOfStudy
	case "organisation":
		v = m.Organisation
	case "role":
		v = m.Role
	case "school":
		v = m.School
	case "wave_id":
		v = m.WaveID
	default:
		return nil, false
	}
	if v == "" {
		return nil, true
	}
	return []string{v}, true
}
