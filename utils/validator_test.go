package utils

import "testing"

type initiateInput struct {
	Amount    string `validate:"required,amountpos"`
	Firstname string `validate:"required,nameok"`
	Email     string `validate:"required,email"`
	Mobile    string `validate:"required,phone10"`
}

func TestValidateStructOK(t *testing.T) {
	in := initiateInput{Amount: "500", Firstname: "Asha", Email: "a@x.com", Mobile: "9999999999"}
	if err := ValidateStruct(&in); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestValidateStructRejects(t *testing.T) {
	cases := []initiateInput{
		{Amount: "", Firstname: "Asha", Email: "a@x.com", Mobile: "9999999999"},
		{Amount: "0", Firstname: "Asha", Email: "a@x.com", Mobile: "9999999999"},
		{Amount: "-5", Firstname: "Asha", Email: "a@x.com", Mobile: "9999999999"},
		{Amount: "abc", Firstname: "Asha", Email: "a@x.com", Mobile: "9999999999"},
		{Amount: "500", Firstname: "Asha", Email: "not-an-email", Mobile: "9999999999"},
		{Amount: "500", Firstname: "Asha", Email: "a@x.com", Mobile: "12345"},
	}
	for i, in := range cases {
		if err := ValidateStruct(&in); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
