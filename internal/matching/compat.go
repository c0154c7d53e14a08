package matching

import "lifelink/pkg/types"

// compatibility maps a recipient blood type to the donor types it can
// safely receive.
var compatibility = map[types.BloodType][]types.BloodType{
	types.BloodTypeAPos:  {types.BloodTypeAPos, types.BloodTypeANeg, types.BloodTypeOPos, types.BloodTypeONeg},
	types.BloodTypeANeg:  {types.BloodTypeANeg, types.BloodTypeONeg},
	types.BloodTypeBPos:  {types.BloodTypeBPos, types.BloodTypeBNeg, types.BloodTypeOPos, types.BloodTypeONeg},
	types.BloodTypeBNeg:  {types.BloodTypeBNeg, types.BloodTypeONeg},
	types.BloodTypeABPos: {types.BloodTypeAPos, types.BloodTypeANeg, types.BloodTypeBPos, types.BloodTypeBNeg, types.BloodTypeABPos, types.BloodTypeABNeg, types.BloodTypeOPos, types.BloodTypeONeg},
	types.BloodTypeABNeg: {types.BloodTypeANeg, types.BloodTypeBNeg, types.BloodTypeABNeg, types.BloodTypeONeg},
	types.BloodTypeOPos:  {types.BloodTypeOPos, types.BloodTypeONeg},
	types.BloodTypeONeg:  {types.BloodTypeONeg},
}

// CompatibleDonorTypes returns the donor blood types acceptable for the
// recipient. The returned slice is a copy and may be modified by the caller.
func CompatibleDonorTypes(recipient types.BloodType) ([]types.BloodType, error) {
	donors, ok := compatibility[recipient]
	if !ok {
		return nil, types.ErrInvalidBloodType
	}

	out := make([]types.BloodType, len(donors))
	copy(out, donors)
	return out, nil
}
