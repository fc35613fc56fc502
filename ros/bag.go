package ros

import (
	"encoding/json"
	"io"
	"os"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// ReadBag reads a recorded rosbag file into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open bag %q", filename)
	}
	defer goutils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()
	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to parse bag %q", filename)
	}
	return rb, nil
}

// SubmapListsFromBag extracts every submap list message recorded on the
// given topic, in record order. Replaying these against a live bridge
// reproduces the metadata traffic of the original session.
func SubmapListsFromBag(rb *rosbag.RosBag, topic string) ([]SubmapList, error) {
	if err := rb.ParseTopicsToJSON(
		"",
		func(int64) bool { return true },
		func(t string) bool { return t == topic },
		false,
	); err != nil {
		return nil, errors.Wrap(err, "parsing bag topics")
	}

	msgs := rb.TopicsAsJSON[topic]
	if msgs == nil {
		return nil, errors.Errorf("no messages recorded on topic %q", topic)
	}

	var lists []SubmapList
	for {
		data, err := msgs.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		var list SubmapList
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, errors.Wrap(err, "decoding recorded submap list")
		}
		lists = append(lists, list)
	}
	return lists, nil
}
