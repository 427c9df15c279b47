// Package ack reconstructs the acknowledgment hierarchy of a 997 and classifies it.
//
// A 997 nests its responses only implicitly: AK1 opens a functional group response,
// AK2 opens a transaction set response, AK3/AK4 report segment and element notes,
// AK5 closes the transaction set response and AK9 closes the group. Validator walks
// the parsed segment stream once with a small state machine (see scanState) and
// produces a ValidationResult:
//
//	ValidationResult
//	  FunctionalGroups []FunctionalGroupValidation   one per AK1..AK9
//	    Transactions []TransactionSetValidation      one per AK2..AK5
//	      Errors []ErrorDetail                       AK3, AK4 and AK5 notes
//
// Acknowledgment codes map to a Status with Classify. Unknown codes degrade to
// StatusUnknown with a logged warning instead of failing the document.
package ack
