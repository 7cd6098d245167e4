package name

import (
	"fmt"

	rtcerrors "github.com/ndnrtc-go/receiver/internal/errors"
)

// MediaType distinguishes audio and video streams.
type MediaType uint8

const (
	MediaUnknown MediaType = iota
	MediaAudio
	MediaVideo
)

func (t MediaType) String() string {
	switch t {
	case MediaAudio:
		return CompAudio
	case MediaVideo:
		return CompVideo
	default:
		return "unknown"
	}
}

// SampleClass distinguishes key and delta video samples. Audio samples
// carry no sample class (spec.md §3).
type SampleClass int8

const (
	SampleUnknown SampleClass = -1
	SampleKey     SampleClass = 0
	SampleDelta   SampleClass = 1
)

func (c SampleClass) String() string {
	switch c {
	case SampleKey:
		return CompKey
	case SampleDelta:
		return CompDelta
	default:
		return "unknown"
	}
}

// SegmentClass distinguishes data segments from FEC parity segments.
type SegmentClass int8

const (
	SegmentUnknown SegmentClass = -1
	SegmentData    SegmentClass = 0
	SegmentParity  SegmentClass = 1
)

// NamespaceInfo is the parsed projection of a legitimate NDN-RTC name
// (spec.md §3). The zero value is not a valid parse result; always
// construct via Parse or the With* builders.
type NamespaceInfo struct {
	BasePrefix  Name
	APIVersion  uint64
	MediaType   MediaType
	StreamName  string
	ThreadName  string // empty when the name addresses the stream itself
	IsMeta      bool
	SampleClass SampleClass
	SegClass    SegmentClass
	SampleNo    uint64
	HasSegment  bool
	SegmentNo   uint64
	MetaVersion uint64
}

// errNotNdnrtc is returned (wrapped) when a name does not carry the
// "ndnrtc" namespace component at all.
var errNotNdnrtc = fmt.Errorf("not an ndnrtc name")

// Parse is the single source of truth for turning a Name into a
// NamespaceInfo. Any name that does not follow the layout in spec.md §3
// is rejected with a MalformedError: it wraps errNotNdnrtc when the
// "ndnrtc" component is missing, and an error describing the violated
// layout rule otherwise.
func Parse(n Name) (NamespaceInfo, error) {
	idx := indexOf(n, CompNdnrtc)
	if idx < 0 {
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", errNotNdnrtc)
	}
	info := NamespaceInfo{BasePrefix: append(Name{}, n[:idx]...), SampleClass: SampleUnknown, SegClass: SegmentUnknown}

	rest := n[idx+1:]
	if len(rest) < 3 {
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("too short after ndnrtc component"))
	}

	marker, v, ok := ParseMarkedNumber(rest[0])
	if !ok || marker != MarkerVersion {
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("missing api-version component"))
	}
	info.APIVersion = v
	rest = rest[1:]

	switch string(rest[0]) {
	case CompAudio:
		info.MediaType = MediaAudio
	case CompVideo:
		info.MediaType = MediaVideo
	default:
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("unknown media type %q", rest[0]))
	}
	rest = rest[1:]

	if len(rest) < 1 {
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("missing stream name"))
	}
	info.StreamName = string(rest[0])
	rest = rest[1:]

	if len(rest) == 0 {
		// Bare stream prefix: no thread, no sample.
		return info, nil
	}

	if string(rest[0]) == CompMeta {
		return parseMeta(info, rest[1:])
	}

	// Otherwise the next component is either a thread name, or (for a
	// bare thread prefix with nothing further) just a thread name alone.
	info.ThreadName = string(rest[0])
	rest = rest[1:]

	if len(rest) == 0 {
		return info, nil
	}

	if string(rest[0]) == CompMeta {
		return parseMeta(info, rest[1:])
	}

	return parseSample(info, rest)
}

func parseMeta(info NamespaceInfo, rest Name) (NamespaceInfo, error) {
	info.IsMeta = true
	if len(rest) == 0 {
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("_meta missing version"))
	}
	marker, v, ok := ParseMarkedNumber(rest[0])
	if !ok || marker != MarkerVersion {
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("_meta missing marked version"))
	}
	info.MetaVersion = v
	rest = rest[1:]
	if len(rest) == 0 {
		return info, nil
	}
	segMarker, segV, ok := ParseMarkedNumber(rest[0])
	if !ok || segMarker != MarkerSegment {
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("_meta version has trailing junk"))
	}
	info.HasSegment = true
	info.SegmentNo = segV
	info.SegClass = SegmentData
	return info, nil
}

func parseSample(info NamespaceInfo, rest Name) (NamespaceInfo, error) {
	switch string(rest[0]) {
	case CompKey:
		info.SampleClass = SampleKey
	case CompDelta:
		info.SampleClass = SampleDelta
	default:
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("unknown sample class %q", rest[0]))
	}
	rest = rest[1:]

	if len(rest) == 0 {
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("sample class missing sequence number"))
	}
	marker, v, ok := ParseMarkedNumber(rest[0])
	if !ok || marker != MarkerSequence {
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("missing marked sequence number"))
	}
	info.SampleNo = v
	rest = rest[1:]

	if len(rest) == 0 {
		// Sample-level prefix: no segment yet.
		info.SegClass = SegmentData
		return info, nil
	}

	info.SegClass = SegmentData
	if string(rest[0]) == CompParity {
		info.SegClass = SegmentParity
		rest = rest[1:]
		if len(rest) == 0 {
			return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("_parity missing segment number"))
		}
	}

	segMarker, segV, ok := ParseMarkedNumber(rest[0])
	if !ok || segMarker != MarkerSegment {
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("missing marked segment number"))
	}
	info.HasSegment = true
	info.SegmentNo = segV
	rest = rest[1:]
	if len(rest) != 0 {
		return NamespaceInfo{}, rtcerrors.NewMalformedError("name.Parse", fmt.Errorf("trailing components after segment number"))
	}
	return info, nil
}

func indexOf(n Name, comp string) int {
	for i, c := range n {
		if string(c) == comp {
			return i
		}
	}
	return -1
}

// StreamPrefix builds the name of a stream: <base>/ndnrtc/<version>/<media>/<stream>.
func StreamPrefix(base Name, media MediaType, stream string) Name {
	return base.Append(
		Comp(CompNdnrtc),
		MarkedNumber(MarkerVersion, APIVersion),
		Comp(media.String()),
		Comp(stream),
	)
}

// ThreadPrefix builds the name of a thread: <streamPrefix>/<thread>.
func ThreadPrefix(streamPrefix Name, thread string) Name {
	return streamPrefix.Append(Comp(thread))
}

// SamplePrefix builds the sample-level name for a video sample. For
// audio, pass SampleUnknown and the class component is omitted.
func SamplePrefix(threadPrefix Name, class SampleClass, sampleNo uint64) Name {
	if class == SampleUnknown {
		return threadPrefix.Append(MarkedNumber(MarkerSequence, sampleNo))
	}
	return threadPrefix.Append(Comp(class.String()), MarkedNumber(MarkerSequence, sampleNo))
}

// SegmentName builds the full segment-level name for a data or parity segment.
func SegmentName(samplePrefix Name, class SegmentClass, segNo uint64) Name {
	if class == SegmentParity {
		return samplePrefix.Append(Comp(CompParity), MarkedNumber(MarkerSegment, segNo))
	}
	return samplePrefix.Append(MarkedNumber(MarkerSegment, segNo))
}

// MetaName builds the name of a stream- or thread-level meta packet's
// segment. prefix should be a stream or thread prefix.
func MetaName(prefix Name, version, segNo uint64) Name {
	return prefix.Append(Comp(CompMeta), MarkedNumber(MarkerVersion, version), MarkedNumber(MarkerSegment, segNo))
}

// SamplePrefixOf rebuilds the sample-level prefix a parsed name belongs
// to, stripping any segment number and parity marker. Used by the
// buffer to group Interests and incoming segments by sample (spec.md
// §4.4, "groups Interests by sample prefix").
func SamplePrefixOf(info NamespaceInfo) Name {
	stream := StreamPrefix(info.BasePrefix, info.MediaType, info.StreamName)
	if info.ThreadName == "" {
		return stream
	}
	thread := ThreadPrefix(stream, info.ThreadName)
	if info.SampleClass == SampleUnknown && info.SegClass == SegmentUnknown {
		return thread
	}
	return SamplePrefix(thread, info.SampleClass, info.SampleNo)
}
