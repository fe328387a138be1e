// Package courses serves the course catalogue and student enrollments.
package courses

// Course is a catalogue entry. ID and Code are the same for the seeded courses.
type Course struct {
	ID          string `json:"id" bson:"_id"`
	Code        string `json:"code" bson:"code"`
	Name        string `json:"name" bson:"name"`
	Instructor  string `json:"instructor" bson:"instructor"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Schedule    string `json:"schedule,omitempty" bson:"schedule,omitempty"`
}

// Catalogue returns the demo course catalogue.
func Catalogue() []*Course {
	return []*Course{
		{
			ID:          "CS101",
			Code:        "CS101",
			Name:        "Introduction to Computer Science",
			Instructor:  "Dr. Mohammad Hashemi",
			Description: "This course introduces the fundamental concepts of computer science.",
			Schedule:    "Sunday, Tuesday 10:00-11:30",
		},
		{
			ID:          "MATH201",
			Code:        "MATH201",
			Name:        "Calculus II",
			Instructor:  "Dr. Layla Al-Razi",
			Description: "Advanced calculus topics including integration techniques and series.",
			Schedule:    "Monday, Wednesday 9:00-10:30",
		},
		{
			ID:          "ENG105",
			Code:        "ENG105",
			Name:        "Academic English",
			Instructor:  "Dr. Omar Khatib",
			Description: "Developing academic writing and communication skills for university students.",
			Schedule:    "Tuesday, Thursday 13:00-14:30",
		},
	}
}
