package csvimport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_HeadersAndRows(t *testing.T) {
	input := "\xEF\xBB\xBFFull Name, E-Mail ,Phone\n" +
		"Dana Buyer, DANA@example.com ,555-201-0000\n" +
		",,\n" +
		"Lee Short\n"

	p, err := NewParser(strings.NewReader(input), WithAliases(map[string]string{"full name": "name", "e-mail": "email"}))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())
	assert.Equal(t, []string{"name", "email", "phone"}, p.Headers())
	assert.Empty(t, p.MissingHeaders([]string{"name", "email"}))
	assert.Equal(t, []string{"city"}, p.MissingHeaders([]string{"name", "city"}))

	rows, err := p.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "blank lines are skipped")
	assert.Equal(t, 2, rows[0].LineNumber)
	assert.Equal(t, "DANA@example.com", rows[0].Get("email"))
	assert.Equal(t, 4, rows[1].LineNumber)
	assert.Equal(t, "Lee Short", rows[1].Get("name"))
	assert.Equal(t, "", rows[1].Get("phone"), "short rows pad with empty cells")
	assert.Equal(t, 3, p.TotalRows())
}

func TestParser_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := NewParser(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("latin-1 bytes are rejected", func(t *testing.T) {
		_, err := NewParser(bytes.NewReader([]byte("name\nJos\xe9\n")))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("header only", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("name,email\n"))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		_, err = p.ReadAll()
		assert.ErrorIs(t, err, ErrNoDataRows)
	})

	t.Run("row cap", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("name\na\nb\nc\n"), WithMaxRows(2))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		_, err = p.ReadAll()
		assert.ErrorIs(t, err, ErrTooManyRows)
	})

	t.Run("semicolon files", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("name;phone\nAl;555\n"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		rows, err := p.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "555", rows[0].Get("phone"))
	})

	t.Run("multi-byte rune across the peek window", func(t *testing.T) {
		// 4095 ASCII bytes then a two byte rune straddling the 4096 boundary.
		input := "name\n" + strings.Repeat("a", 4090) + "é\n"
		_, err := NewParser(strings.NewReader(input))
		assert.NoError(t, err)
	})
}

func TestValidator(t *testing.T) {
	v := NewValidator(
		Field("name").Required().MaxLength(10),
		Field("email").Email(),
		Field("budget").Decimal().Min(decimal.Zero),
		Field("payment").OneOf("cash", "finance", "rto"),
	)
	assert.Equal(t, []string{"name"}, v.RequiredColumns())

	ok := &Row{LineNumber: 2, Data: map[string]string{"name": "Dana", "email": "dana@example.com", "budget": "$12,500.00", "payment": "Cash"}}
	assert.Empty(t, v.Validate(ok))

	bad := &Row{LineNumber: 3, Data: map[string]string{"name": "", "email": "Dana <dana@example.com>", "budget": "-1", "payment": "lease"}}
	errs := v.Validate(bad)
	require.Len(t, errs, 4)
	assert.Equal(t, CodeRequired, errs[0].Code)
	assert.Equal(t, "email", errs[1].Column)
	assert.Equal(t, CodeInvalid, errs[2].Code)
	assert.Equal(t, CodeNotAllowed, errs[3].Code)
	assert.Equal(t, "row 3, column 'payment': must be one of cash, finance, rto", errs[3].Error())

	long := &Row{LineNumber: 4, Data: map[string]string{"name": "Bartholomew Q"}}
	errs = v.Validate(long)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeTooLong, errs[0].Code)
}

func TestValidator_Accept(t *testing.T) {
	v := NewValidator(Field("source").Accept(func(s string) bool { return s == "website" }, "must be a known lead source"))

	assert.Empty(t, v.Validate(&Row{LineNumber: 2, Data: map[string]string{"source": "website"}}))
	assert.Empty(t, v.Validate(&Row{LineNumber: 3, Data: map[string]string{"source": ""}}), "blank values skip the check")

	errs := v.Validate(&Row{LineNumber: 4, Data: map[string]string{"source": "billboard"}})
	require.Len(t, errs, 1)
	assert.Equal(t, CodeNotAllowed, errs[0].Code)
	assert.Equal(t, "row 4, column 'source': must be a known lead source", errs[0].Error())
}

func TestErrorCollection_Caps(t *testing.T) {
	ec := NewErrorCollection(2)
	for i := 0; i < 3; i++ {
		ec.Add(RowError{Row: i + 2, Code: CodeInvalid, Message: "bad"})
	}
	assert.Len(t, ec.Errors(), 2)
	assert.Equal(t, 3, ec.TotalCount())
	assert.True(t, ec.IsTruncated())

	amount, err := ParseAmount(" $1,250.50 ")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("1250.50")))
}
