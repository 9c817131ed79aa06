package enums

// CatalogStatus is the observable load state of an offer catalog.
type CatalogStatus string

const (
	CatalogStatusIdle    CatalogStatus = "idle"
	CatalogStatusLoading CatalogStatus = "loading"
	CatalogStatusLoaded  CatalogStatus = "loaded"
	CatalogStatusFailed  CatalogStatus = "failed"
)

// String implements fmt.Stringer.
func (s CatalogStatus) String() string {
	return string(s)
}
