package progression

import (
	"strconv"
	"strings"
)

// DeriveSectionCode builds the code of the section a student moves into:
// (year*100 + semester) followed by the current code's trailing letter, upper-cased.
// The letter defaults to 'A' when the current code does not end with an ASCII letter.
//
//	DeriveSectionCode("101B", 2, 1) == "201B"
//	DeriveSectionCode("101", 1, 2) == "102A"
func DeriveSectionCode(currentCode string, newYear, newSemester int) string {
	letter := byte('A')
	if n := len(currentCode); n > 0 {
		if last := currentCode[n-1]; isASCIILetter(last) {
			letter = strings.ToUpper(string(last))[0]
		}
	}
	return strconv.Itoa(newYear*100+newSemester) + string(letter)
}

func isASCIILetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// NextTerm computes the (year level, semester) a promotion of the given type leads to.
// Year promotions require the 2nd semester to be completed; semester promotions are
// refused in the 2nd semester.
func NextTerm(yearLevel, semester int, pt PromotionType) (int, int, error) {
	switch pt {
	case PromotionYear:
		if semester != FinalSemester {
			return 0, 0, newError(InvalidPromotionType, msgYearNeedsSecondSem)
		}
		return yearLevel + 1, 1, nil
	case PromotionSemester:
		if semester == FinalSemester {
			return 0, 0, newError(InvalidPromotionType, msgUseYearPromotion)
		}
		return yearLevel, semester + 1, nil
	default:
		return 0, 0, newError(InvalidPromotionType, msgUnknownPromotionType)
	}
}
