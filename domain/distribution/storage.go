package distribution

// UnlimitedBytes is reported as AvailableBytes by accounts without a quota
const UnlimitedBytes int64 = -1

// StorageInfo is the Drive quota seen before an upload
type StorageInfo struct {
	TotalBytes     int64
	UsedBytes      int64
	AvailableBytes int64
}

// Unlimited reports whether the account has no storage limit
func (s StorageInfo) Unlimited() bool {
	return s.AvailableBytes < 0
}

// HasSpaceFor reports whether an upload of size bytes fits. A replacement
// upload passes the size difference, which may be negative.
func (s StorageInfo) HasSpaceFor(size int64) bool {
	return s.Unlimited() || size <= s.AvailableBytes
}
