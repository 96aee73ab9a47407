package model

import "github.com/go-playground/validator/v10"

var validate = validator.New()

func init() {
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(SendRequest)
		if !req.Mode.Valid() {
			sl.ReportError(req.Mode, "Mode", "Mode", "sendmode", "")
		}
		if req.Mode.CaseBound() && req.CaseID < 1 {
			sl.ReportError(req.CaseID, "CaseID", "CaseID", "casebound", req.Mode.String())
		}
	}, SendRequest{})
}
