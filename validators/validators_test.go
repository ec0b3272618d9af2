package validators

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogpub/models"
)

func fieldsOf(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestCreatePublicationSchema(t *testing.T) {
	t.Run("valid form", func(t *testing.T) {
		fields, errs := CreatePublication.Validate(url.Values{
			"title":       {"  Hello world  "},
			"description": {"A long enough description"},
			"course":      {models.CourseTaller},
			"image":       {"abc.png"},
		})
		assert.Empty(t, errs)
		assert.Equal(t, "Hello world", fields["title"])
		assert.Equal(t, "abc.png", fields["image"])
		_, hasDate := fields["date"]
		assert.False(t, hasDate)
	})

	t.Run("empty form reports every rule in order", func(t *testing.T) {
		_, errs := CreatePublication.Validate(url.Values{})
		assert.Equal(t, []string{
			"title", "title",
			"description", "description",
			"course", "course",
			"image",
		}, fieldsOf(errs))
		assert.Equal(t, "title is required", errs[0].Message)
	})

	t.Run("short values and unknown course", func(t *testing.T) {
		_, errs := CreatePublication.Validate(url.Values{
			"title":       {"Hey"},
			"description": {"short"},
			"course":      {"Matematica"},
			"image":       {"abc.png"},
		})
		require.Len(t, errs, 3)
		assert.Equal(t, "title must be at least 5 characters", errs[0].Message)
		assert.Equal(t, "description must be at least 10 characters", errs[1].Message)
		assert.Contains(t, errs[2].Message, "Practica Supervisada")
	})

	t.Run("whitespace only counts as missing", func(t *testing.T) {
		_, errs := CreatePublication.Validate(url.Values{
			"title":       {"      "},
			"description": {"A long enough description"},
			"course":      {models.CourseTecnologia},
			"image":       {"abc.png"},
		})
		assert.Equal(t, []string{"title", "title"}, fieldsOf(errs))
	})

	t.Run("bad optional date", func(t *testing.T) {
		_, errs := CreatePublication.Validate(url.Values{
			"title":       {"Hello world"},
			"description": {"A long enough description"},
			"course":      {models.CourseTecnologia},
			"image":       {"abc.png"},
			"date":        {"yesterday"},
		})
		assert.Equal(t, []string{"date"}, fieldsOf(errs))
	})
}

func TestFilterPublicationSchema(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		failed []string
	}{
		{"empty query", "", []string{}},
		{"all valid", "course=Taller&title=go&sortByDate=asc&startDate=2024-01-01&endDate=2024-01-31", []string{}},
		{"empty values are skipped", "course=&sortByDate=", []string{}},
		{"unknown course", "course=Matematica", []string{"course"}},
		{"repeated title", "title=a&title=b", []string{"title"}},
		{"bad sort", "sortByDate=up", []string{"sortByDate"}},
		{"bad dates", "startDate=01/02/2024&endDate=nope", []string{"startDate", "endDate"}},
		{"rfc3339 date", "startDate=2024-01-01T10:00:00Z", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := url.ParseQuery(tc.query)
			require.NoError(t, err)
			_, errs := FilterPublication.Validate(values)
			assert.Equal(t, tc.failed, fieldsOf(errs))
		})
	}
}

func TestCreateCommentSchema(t *testing.T) {
	_, errs := CreateComment.Validate(url.Values{"name": {"Al"}, "comment": {"hey"}})
	assert.Equal(t, []FieldError{
		{Field: "name", Message: "name must be at least 3 characters"},
		{Field: "comment", Message: "comment must be at least 5 characters"},
	}, errs)

	fields, errs := CreateComment.Validate(url.Values{"name": {"Ana"}, "comment": {"great post"}})
	assert.Empty(t, errs)
	assert.Equal(t, map[string]string{"name": "Ana", "comment": "great post"}, fields)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, models.Location()), got)

	got, err = ParseDate("2024-02-29T12:00:00+02:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)))

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)
}
