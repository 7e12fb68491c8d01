package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entry renders one candidate record the way KeePass exports it.
func entry(b64, user, pass string) string {
	return strings.Join([]string{
		"<Entry>",
		"\t<UUID>" + b64 + "</UUID>",
		"\t<String>",
		"\t\t<Key>Password</Key>",
		`		<Value ProtectedInMemory="True">` + pass + "</Value>",
		"\t</String>",
		"\t<String>",
		"\t\t<Key>UserName</Key>",
		"\t\t<Value>" + user + "</Value>",
		"\t</String>",
		"</Entry>",
	}, "\n")
}

func resolveText(t *testing.T, text string) (*refTable, map[string]credential, error) {
	t.Helper()
	lines := splitLines([]byte(text))
	refs, err := collectRefs(lines, replaceAll, discardLogger())
	require.NoError(t, err)
	creds, err := resolveCredentials(lines, refs, discardLogger())
	return refs, creds, err
}

func TestResolve_Fragment(t *testing.T) {
	text := strings.Join([]string{
		"<UUID>QUFB</UUID>",
		"<Key>UserName</Key>",
		"<Value>alice</Value>",
		"<Key>Password</Key>",
		"<Value>secret</Value>",
		"user={REF:U@I:414141}",
	}, "\n")

	refs, creds, err := resolveText(t, text)
	require.NoError(t, err)
	require.NoError(t, checkCount(creds, refs))
	assert.Equal(t, map[string]credential{"414141": {UserName: "alice", Password: "secret"}}, creds)
}

func TestResolve_FirstRecordWins(t *testing.T) {
	text := strings.Join([]string{
		entry("QUFB", "alice", "secret"),
		"<History>",
		entry("QUFB", "old-alice", "old-secret"),
		"</History>",
		entry("Q0ND", "{REF:U@I:414141}", "{REF:P@I:414141}"),
	}, "\n")

	_, creds, err := resolveText(t, text)
	require.NoError(t, err)
	assert.Equal(t, credential{UserName: "alice", Password: "secret"}, creds["414141"])
	assert.Len(t, creds, 1)
}

func TestResolve_ReferenceValuedRecordRetried(t *testing.T) {
	text := strings.Join([]string{
		entry("QUFB", "{REF:U@I:424242}", "secret"),
		"<History>",
		entry("QUFB", "alice", "older-secret"),
		"</History>",
		entry("QkJC", "bob", "hunter2"),
		entry("Q0ND", "{REF:U@I:414141}", "{REF:P@I:414141}"),
	}, "\n")

	refs, creds, err := resolveText(t, text)
	require.NoError(t, err)
	require.NoError(t, checkCount(creds, refs))
	assert.Equal(t, credential{UserName: "alice", Password: "older-secret"}, creds["414141"])
	assert.Equal(t, credential{UserName: "bob", Password: "hunter2"}, creds["424242"])
}

func TestResolve_ChainedReferenceRejected(t *testing.T) {
	text := strings.Join([]string{
		entry("QUFB", "{REF:U@I:424242}", "secret"),
		entry("QkJC", "bob", "hunter2"),
		entry("Q0ND", "{REF:U@I:414141}", "x"),
	}, "\n")

	refs, creds, err := resolveText(t, text)
	require.NoError(t, err)
	assert.NotContains(t, creds, "414141")

	err = checkCount(creds, refs)
	var ce *CountError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Credentials)
	assert.Equal(t, 2, ce.References)
	assert.ErrorIs(t, err, ErrCount)
}

func TestResolve_MissingTarget(t *testing.T) {
	refs, creds, err := resolveText(t, entry("Q0ND", "{REF:U@I:414141}", "x"))
	require.NoError(t, err)
	assert.ErrorIs(t, checkCount(creds, refs), ErrCount)
}

func TestResolve_ExtractFailure(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		field string
	}{
		{
			name:  "no value line",
			lines: []string{"<UUID>QUFB</UUID>", "<Key>UserName</Key>", "<Other/>", "x={REF:U@I:414141}"},
			field: "username",
		},
		{
			name:  "empty value",
			lines: []string{"<UUID>QUFB</UUID>", "<Key>Password</Key>", "<Value></Value>", "x={REF:P@I:414141}"},
			field: "password",
		},
		{
			name:  "key on last line",
			lines: []string{"x={REF:P@I:414141}", "<UUID>QUFB</UUID>", "<Key>Password</Key>"},
			field: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := resolveText(t, strings.Join(tt.lines, "\n"))
			var ee *ExtractError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.field, ee.Field)
			assert.Equal(t, "QUFB", ee.ID.Base64)
			assert.ErrorIs(t, err, ErrExtract)
		})
	}
}

func TestResolve_UnwantedEntriesIgnored(t *testing.T) {
	text := strings.Join([]string{
		entry("WldX", "zed", "pw"),
		entry("QUFB", "alice", "secret"),
		"{REF:P@I:414141}",
	}, "\n")

	_, creds, err := resolveText(t, text)
	require.NoError(t, err)
	assert.Len(t, creds, 1)
	assert.Equal(t, "secret", creds["414141"].Password)
}
