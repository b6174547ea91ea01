// Package gtfsrt renders fleet snapshots as GTFS-Realtime VehiclePositions feeds.
package gtfsrt

import (
	"fmt"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/ukydev/metro-telemetry/internal/models"
)

const gtfsRealtimeVersion = "2.0"

// BuildFeed converts vehicle statuses into a full-dataset VehiclePositions feed.
func BuildFeed(vehicles []models.VehicleStatus, ts time.Time) *gtfsrtpb.FeedMessage {
	feed := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRealtimeVersion),
			Incrementality:      gtfsrtpb.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(ts.Unix())),
		},
	}
	for i := range vehicles {
		feed.Entity = append(feed.Entity, vehicleEntity(&vehicles[i]))
	}
	return feed
}

func vehicleEntity(v *models.VehicleStatus) *gtfsrtpb.FeedEntity {
	status := gtfsrtpb.VehiclePosition_IN_TRANSIT_TO
	stopID := v.Position.NextStationID
	if v.AtStation {
		status = gtfsrtpb.VehiclePosition_STOPPED_AT
		stopID = v.Position.CurrentStationID
	}

	return &gtfsrtpb.FeedEntity{
		Id: proto.String(v.ID),
		Vehicle: &gtfsrtpb.VehiclePosition{
			Trip: &gtfsrtpb.TripDescriptor{
				RouteId: proto.String(v.Line),
			},
			Vehicle: &gtfsrtpb.VehicleDescriptor{
				Id:    proto.String(v.ID),
				Label: proto.String(v.Name),
			},
			Position: &gtfsrtpb.Position{
				Latitude:  proto.Float32(float32(v.Position.Lat)),
				Longitude: proto.Float32(float32(v.Position.Lng)),
				Bearing:   proto.Float32(float32(v.Position.Heading)),
				Speed:     proto.Float32(float32(v.Telemetry.SpeedKmh / 3.6)),
			},
			CurrentStatus: status.Enum(),
			StopId:        proto.String(stopID),
			Timestamp:     proto.Uint64(uint64(v.Timestamp.Unix())),
		},
	}
}

// Marshal encodes the feed in protobuf wire format.
func Marshal(vehicles []models.VehicleStatus, ts time.Time) ([]byte, error) {
	data, err := proto.Marshal(BuildFeed(vehicles, ts))
	if err != nil {
		return nil, fmt.Errorf("marshal gtfs-rt feed: %w", err)
	}
	return data, nil
}

// MarshalJSON encodes the feed as protojson, for debugging.
func MarshalJSON(vehicles []models.VehicleStatus, ts time.Time) ([]byte, error) {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(BuildFeed(vehicles, ts))
	if err != nil {
		return nil, fmt.Errorf("marshal gtfs-rt json: %w", err)
	}
	return data, nil
}
