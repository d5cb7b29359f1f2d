package signature

import (
	"net/url"
	"testing"
)

var testSecret = []byte("top-secret")

func TestSignQueryFormat(t *testing.T) {
	data := Payload{
		"redirect":    "https://localhost/usage-success",
		"price":       "1",
		"description": "One email",
	}

	if got := data.Canonical(FormatQuery); got != "description=One emailprice=1redirect=https://localhost/usage-success" {
		t.Fatalf("unexpected canonical form %q", got)
	}

	want := "88a571e018f4ad0679fd269b2c1290758e15542e722aa3ed47fb30445325c042"
	if got := Sign(data, testSecret, Options{}); got != want {
		t.Fatalf("Sign() = %q, want %q", got, want)
	}
}

func TestVerifyIgnoresFieldsOutsideSignedSet(t *testing.T) {
	signed := Payload{
		"description": "One email",
		"price":       "1",
		"redirect":    "https://localhost/usage-success",
	}
	sig := Sign(signed, testSecret, Options{})

	request := Payload{
		"description": "One email",
		"price":       "1",
		"redirect":    "https://localhost/usage-success",
		"shop":        "example.myshopify.com",
		"signature":   sig,
	}

	if !Verify(request.Only("description", "price", "redirect"), sig, testSecret, Options{}) {
		t.Fatalf("expected signature to validate when shop is present but not signed")
	}
	if Verify(request.Without("signature"), sig, testSecret, Options{}) {
		t.Fatalf("expected signature to fail when shop is pulled into the signed set")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	data := Payload{"description": "One email", "price": "1"}
	sig := Sign(data, testSecret, Options{})

	tampered := Payload{"description": "One email", "price": "100"}
	if Verify(tampered, sig, testSecret, Options{}) {
		t.Fatalf("expected tampered price to fail verification")
	}
	if Verify(data, sig, []byte("other-secret"), Options{}) {
		t.Fatalf("expected wrong secret to fail verification")
	}
	if Verify(data, "", testSecret, Options{}) {
		t.Fatalf("expected empty signature to fail verification")
	}
	if Verify(data, "1.00", testSecret, Options{}) {
		t.Fatalf("expected garbage signature to fail verification")
	}
}

func TestPriceRepresentationIsPartOfSignature(t *testing.T) {
	a := Sign(Payload{"price": "1"}, testSecret, Options{})
	b := Sign(Payload{"price": "1.00"}, testSecret, Options{})
	if a == b {
		t.Fatalf("expected differing price strings to produce different signatures")
	}
}

func TestSignJSONFormat(t *testing.T) {
	data := Payload{"b": "2", "a": "1"}
	if got := data.Canonical(FormatJSON); got != `{"a":"1","b":"2"}` {
		t.Fatalf("unexpected canonical JSON %q", got)
	}
	want := "21f8413fcff8f4d2fd60f489efe2cb0c02d731884843b4c654d27e3beb48e9e9"
	if got := Sign(data, testSecret, Options{Format: FormatJSON}); got != want {
		t.Fatalf("Sign(json) = %q, want %q", got, want)
	}
}

func TestSignDegenerateInput(t *testing.T) {
	want := "b613679a0814d9ec772f95d778c35fc5ff1697c493715653c6c712144292c5ad"
	if got := Sign(Payload{}, nil, Options{}); got != want {
		t.Fatalf("Sign(empty) = %q, want %q", got, want)
	}
	if Verify(Payload{"price": "1"}, want, nil, Options{}) {
		t.Fatalf("expected degenerate signature not to match real data")
	}
}

func TestVerifyBytesBase64(t *testing.T) {
	body := []byte(`{"id":1}`)
	sig := "mcEoUM86zV4aLphuk55UrV1Aoy0fg41Z5SuBcUILJJM="

	if got := SignBytes(body, testSecret, EncodingBase64); got != sig {
		t.Fatalf("SignBytes() = %q, want %q", got, sig)
	}
	if !VerifyBytes(body, sig, testSecret, EncodingBase64) {
		t.Fatalf("expected webhook signature to validate")
	}
	if VerifyBytes([]byte(`{"id":2}`), sig, testSecret, EncodingBase64) {
		t.Fatalf("expected modified body to fail")
	}
}

func TestVerifyQuery(t *testing.T) {
	values := url.Values{}
	values.Set("shop", "example.myshopify.com")
	values.Set("code", "abc")
	values.Set("timestamp", "1700000000")
	values.Set("hmac", "6dec47c0dee67638b9d34a23db89b84c70c80eb6cf286f523dde7d4ffecaca44")

	if !VerifyQuery(values, testSecret) {
		t.Fatalf("expected signed query to validate")
	}

	values.Set("shop", "evil.myshopify.com")
	if VerifyQuery(values, testSecret) {
		t.Fatalf("expected modified query to fail")
	}

	values.Del("hmac")
	if VerifyQuery(values, testSecret) {
		t.Fatalf("expected query without hmac to fail")
	}
}

func TestFromValuesJoinsRepeatedParams(t *testing.T) {
	values := url.Values{"ids[]": {"1", "2"}, "shop": {"a"}}
	p := FromValues(values)
	if p["ids[]"] != "1,2" {
		t.Fatalf("expected repeated values to be joined, got %q", p["ids[]"])
	}
}
