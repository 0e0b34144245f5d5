// Package ckberrors defines the small, stable exit-code space shared by
// every script in this repository. A CKB-VM script has exactly one
// observable output: an i8 return code read by the host after the script's
// main runs to completion. There is no panic, no unwinding, and no partial
// acceptance -- every fallible operation threads a *ScriptError up to the
// entry point, which converts it to that return code.
package ckberrors

import "fmt"

// Code is the i8 value returned from a script's main to the CKB-VM host.
type Code int8

// Exit codes. Values below 0 and the small structural range mirror the
// codes a ckb-std based script would return; the rollup-specific range
// above is this core's own.
const (
	Success Code = 0

	// Structural errors, shared with the host syscall ABI.
	IndexOutOfBound Code = 1
	ItemMissing     Code = 2
	LengthNotEnough Code = 3
	Encoding        Code = 4

	InvalidOutput    Code = 7
	AmountOverflow   Code = 14
	NotForSell       Code = 19
	InvalidBlock     Code = 20

	InvalidPostGlobalState               Code = 23
	InvalidWithdrawalCell                 Code = 27
	InvalidCustodianCell                  Code = 28
	InvalidChallengeTarget                Code = 34
	InvalidLastFinalizedWithdrawal         Code = 46
	InvalidRollupFinalizeWithdrawalWitness Code = 47
	InvalidUserWithdrawalCell              Code = 48

	// ErrorPubkeyHash is returned by account-lock scripts when a recovered
	// signer does not match the address encoded in script args.
	ErrorPubkeyHash Code = -31
)

var codeNames = map[Code]string{
	Success:                                "Success",
	IndexOutOfBound:                        "IndexOutOfBound",
	ItemMissing:                            "ItemMissing",
	LengthNotEnough:                        "LengthNotEnough",
	Encoding:                               "Encoding",
	InvalidOutput:                          "InvalidOutput",
	AmountOverflow:                         "AmountOverflow",
	NotForSell:                             "NotForSell",
	InvalidBlock:                           "InvalidBlock",
	InvalidPostGlobalState:                 "InvalidPostGlobalState",
	InvalidWithdrawalCell:                  "InvalidWithdrawalCell",
	InvalidCustodianCell:                   "InvalidCustodianCell",
	InvalidChallengeTarget:                 "InvalidChallengeTarget",
	InvalidLastFinalizedWithdrawal:         "InvalidLastFinalizedWithdrawal",
	InvalidRollupFinalizeWithdrawalWitness: "InvalidRollupFinalizeWithdrawalWitness",
	InvalidUserWithdrawalCell:              "InvalidUserWithdrawalCell",
	ErrorPubkeyHash:                        "ErrorPubkeyHash",
}

// String implements fmt.Stringer.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int8(c))
}

// ScriptError is the error type every verification function in this
// repository returns. It always carries the exit code the host should see.
type ScriptError struct {
	Code Code
	Msg  string
}

// New constructs a ScriptError with the given code and message.
func New(code Code, msg string) *ScriptError {
	return &ScriptError{Code: code, Msg: msg}
}

// Newf constructs a ScriptError with a formatted message.
func Newf(code Code, format string, args ...any) *ScriptError {
	return &ScriptError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// CodeOf extracts the exit code from err, defaulting to Encoding for any
// error this package did not originate (e.g. a syscall-layer error that
// was not wrapped).
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var se *ScriptError
	if as(err, &se) {
		return se.Code
	}
	return Encoding
}

// as is a tiny errors.As shim kept local to avoid importing errors for a
// single call site used only by CodeOf.
func as(err error, target **ScriptError) bool {
	se, ok := err.(*ScriptError)
	if !ok {
		return false
	}
	*target = se
	return true
}
