package rider

// ComScarf approximates the linerider.com scarf flutter. It runs sin/expm1
// sequences whose bits differ between math libraries, so fixture comparisons
// cannot pass with it enabled. Off by default.
var ComScarf = false

// LraLegacyFakieCheck switches the joint passes to LRA's legacy behavior,
// which also skips joints on the frame the rider dismounts. LRA's own handling
// of the shoulder fakie never matched flash or linerider.com exactly; both
// behaviors are kept.
var LraLegacyFakieCheck = false

// OffsetBeforeBones moves the rider to its starting transform before bone
// rest lengths are measured instead of after.
var OffsetBeforeBones = false
