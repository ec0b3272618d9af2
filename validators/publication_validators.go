package validators

import "github.com/cppla/blogpub/models"

var courseMessage = "course must be one of: " + models.CourseList()

// CreatePublication checks the multipart form of POST /publication. The image
// value is the stored filename set by the upload step.
var CreatePublication = Schema{
	{Field: "title", Tag: "required", Message: "title is required"},
	{Field: "title", Tag: "min=5", Message: "title must be at least 5 characters"},
	{Field: "description", Tag: "required", Message: "description is required"},
	{Field: "description", Tag: "min=10", Message: "description must be at least 10 characters"},
	{Field: "course", Tag: "required", Message: "course is required"},
	{Field: "course", Tag: "course", Message: courseMessage},
	{Field: "image", Tag: "required", Message: "image is required"},
	{Field: "date", Tag: "date", Message: "date must be YYYY-MM-DD or RFC 3339", Optional: true},
}

// FilterPublication checks the query of GET /publication/filter.
var FilterPublication = Schema{
	{Field: "course", Tag: "course", Message: courseMessage, Optional: true},
	{Field: "title", Tag: TagString, Message: "title must be a string", Optional: true},
	{Field: "sortByDate", Tag: "oneof=asc desc", Message: "sortByDate must be one of: asc, desc", Optional: true},
	{Field: "startDate", Tag: "date", Message: "startDate must be YYYY-MM-DD or RFC 3339", Optional: true},
	{Field: "endDate", Tag: "date", Message: "endDate must be YYYY-MM-DD or RFC 3339", Optional: true},
}

// CreateComment checks the body of PATCH /publication/:id.
var CreateComment = Schema{
	{Field: "name", Tag: "required", Message: "name is required"},
	{Field: "name", Tag: "min=3", Message: "name must be at least 3 characters"},
	{Field: "comment", Tag: "required", Message: "comment is required"},
	{Field: "comment", Tag: "min=5", Message: "comment must be at least 5 characters"},
}
