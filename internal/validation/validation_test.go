package validation

import "testing"

type orderRequest struct {
	Symbol    string `validate:"required"`
	Side      string `validate:"required,oneof=BUY SELL"`
	Quantity  int64  `validate:"required,gt=0"`
	Rationale string `validate:"required,min=1"`
}

func TestStructPasses(t *testing.T) {
	errs := Struct(orderRequest{
		Symbol:    "005930",
		Side:      "BUY",
		Quantity:  10,
		Rationale: "strong earnings",
	})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestStructReportsEachField(t *testing.T) {
	errs := Struct(orderRequest{Side: "HOLD", Quantity: -3})

	byField := map[string]string{}
	for _, e := range errs {
		byField[e.Field] = e.Message
	}

	if byField["symbol"] == "" {
		t.Error("missing symbol error")
	}
	if byField["side"] != "must be one of: BUY, SELL" {
		t.Errorf("side message = %q", byField["side"])
	}
	if byField["quantity"] != "must be greater than 0" {
		t.Errorf("quantity message = %q", byField["quantity"])
	}
	if byField["rationale"] == "" {
		t.Error("missing rationale error")
	}
}

func TestStructSnakeCasesFieldNames(t *testing.T) {
	type req struct {
		ClassCode string `validate:"required"`
	}
	errs := Struct(req{})
	if len(errs) != 1 || errs[0].Field != "class_code" {
		t.Fatalf("errs = %v, want single class_code error", errs)
	}
}
