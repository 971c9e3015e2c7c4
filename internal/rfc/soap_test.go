package rfc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readTableResponse = `<?xml version="1.0" encoding="utf-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/">
  <SOAP-ENV:Body>
    <urn:BBP_RFC_READ_TABLE.Response xmlns:urn="urn:sap-com:document:sap:rfc:functions">
      <DATA>
        <item><WA>1000|Alpha</WA></item>
        <item><WA>2000|Beta</WA></item>
      </DATA>
      <FIELDS>
        <item>
          <FIELDNAME>BUKRS</FIELDNAME>
          <OFFSET>000000</OFFSET>
          <LENGTH>000004</LENGTH>
          <TYPE>C</TYPE>
          <FIELDTEXT>Company Code</FIELDTEXT>
        </item>
      </FIELDS>
      <OPTIONS></OPTIONS>
    </urn:BBP_RFC_READ_TABLE.Response>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

const faultResponse = `<?xml version="1.0" encoding="utf-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/">
  <SOAP-ENV:Body>
    <SOAP-ENV:Fault>
      <faultcode>SOAP-ENV:Client</faultcode>
      <faultstring>TABLE_NOT_AVAILABLE</faultstring>
    </SOAP-ENV:Fault>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

func newTestCaller(t *testing.T, handler http.HandlerFunc) *SOAPCaller {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	caller, err := NewSOAPCaller(SOAPConfig{
		BaseURL:  server.URL,
		Client:   "100",
		User:     "reader",
		Password: "secret",
		Language: "EN",
	})
	require.NoError(t, err)
	return caller
}

func TestSOAPCallerCall(t *testing.T) {
	var gotPath, gotBody string
	var gotQuery map[string][]string
	caller := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		user, password, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "reader", user)
		assert.Equal(t, "secret", password)

		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		io.WriteString(w, readTableResponse)
	})

	params := ReadTableParams{
		Table:     "T001",
		Delimiter: "|",
		RowCount:  2,
		Fields:    []string{"BUKRS", "BUTXT"},
		Options:   []string{"BUKRS <> '3000'"},
	}
	raw, err := caller.Call(context.Background(), FuncReadTableBBP, params.Map())
	require.NoError(t, err)

	assert.Equal(t, "/sap/bc/soap/rfc", gotPath)
	assert.Equal(t, []string{"100"}, gotQuery["sap-client"])
	assert.Equal(t, []string{"EN"}, gotQuery["sap-language"])
	assert.Contains(t, gotBody, "<urn:BBP_RFC_READ_TABLE")
	assert.Contains(t, gotBody, "<QUERY_TABLE>T001</QUERY_TABLE>")
	assert.Contains(t, gotBody, "<FIELDS><item><FIELDNAME>BUKRS</FIELDNAME></item><item><FIELDNAME>BUTXT</FIELDNAME></item></FIELDS>")
	assert.Contains(t, gotBody, "<OPTIONS><item><TEXT>BUKRS &lt;&gt; &#39;3000&#39;</TEXT></item></OPTIONS>")

	result, err := DecodeReadTableResult(raw)
	require.NoError(t, err)
	require.Len(t, result.Data, 2)
	assert.Equal(t, "1000|Alpha", result.Data[0].WA)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, "BUKRS", result.Fields[0].FieldName)
}

func TestSOAPCallerCall_Fault(t *testing.T) {
	caller := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, faultResponse)
	})

	_, err := caller.Call(context.Background(), FuncReadTableBBP, map[string]any{"QUERY_TABLE": "NOPE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TABLE_NOT_AVAILABLE")
}

func TestSOAPCallerCall_UnexpectedStatus(t *testing.T) {
	caller := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "<html>logon failed</html>")
	})

	_, err := caller.Call(context.Background(), FuncPing, map[string]any{"REQUTEXT": "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSOAPCallerCall_ContextCancelled(t *testing.T) {
	caller := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, readTableResponse)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := caller.Call(ctx, FuncPing, nil)
	require.Error(t, err)
}

func TestNewSOAPCaller_Validation(t *testing.T) {
	_, err := NewSOAPCaller(SOAPConfig{Client: "100"})
	require.Error(t, err)

	_, err = NewSOAPCaller(SOAPConfig{BaseURL: "https://sap.example.com"})
	require.Error(t, err)
}
