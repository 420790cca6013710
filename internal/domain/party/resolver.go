package party

import "context"

type resolverFunc func(ctx context.Context, id int64) (*Subject, error)

// Resolver maps a (subject_type, subject_id) pair to the party behind it.
// Dispatch goes through a lookup table so adding a subject type means adding
// one entry, not another branch.
type Resolver struct {
	byType map[SubjectType]resolverFunc
}

func NewResolver(repo *Repository) *Resolver {
	return &Resolver{
		byType: map[SubjectType]resolverFunc{
			SubjectCourier: func(ctx context.Context, id int64) (*Subject, error) {
				c, err := repo.GetCourier(ctx, id)
				if err != nil {
					return nil, err
				}
				return &Subject{Type: SubjectCourier, ID: c.ID, Code: c.CourierCode, Name: c.FullName}, nil
			},
			SubjectPDV: func(ctx context.Context, id int64) (*Subject, error) {
				p, err := repo.GetPointOfSale(ctx, id)
				if err != nil {
					return nil, err
				}
				return &Subject{Type: SubjectPDV, ID: p.ID, Code: p.Code, Name: p.Name}, nil
			},
			SubjectSupplier: func(ctx context.Context, id int64) (*Subject, error) {
				s, err := repo.GetSupplier(ctx, id)
				if err != nil {
					return nil, err
				}
				return &Subject{Type: SubjectSupplier, ID: s.ID, Name: s.SupplierType}, nil
			},
		},
	}
}

// Resolve returns the subject behind the pair, ErrInvalidSubjectType for an
// unknown type and ErrSubjectNotFound when the id does not exist.
func (r *Resolver) Resolve(ctx context.Context, subjectType SubjectType, id int64) (*Subject, error) {
	fn, ok := r.byType[subjectType]
	if !ok {
		return nil, ErrInvalidSubjectType
	}
	return fn(ctx, id)
}
