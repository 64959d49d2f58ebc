package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"carpool/internal/domain"
)

// OfferIndex keeps the endpoints of open offers in two Redis GEO sets so
// candidate searches do not scan the offers table.
type OfferIndex struct {
	client    *redis.Client
	originKey string
	destKey   string
	readyKey  string
}

// NewOfferIndex creates an OfferIndex whose sets share the given key prefix.
func NewOfferIndex(client *redis.Client, keyPrefix string) *OfferIndex {
	return &OfferIndex{
		client:    client,
		originKey: keyPrefix + ":origin",
		destKey:   keyPrefix + ":dest",
		readyKey:  keyPrefix + ":complete",
	}
}

// Add indexes both endpoints of an offer using GEOADD.
func (s *OfferIndex) Add(ctx context.Context, offer *domain.Offer) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, s.originKey, &redis.GeoLocation{
			Name:      offer.ID,
			Longitude: offer.Origin.Lng,
			Latitude:  offer.Origin.Lat,
		})
		pipe.GeoAdd(ctx, s.destKey, &redis.GeoLocation{
			Name:      offer.ID,
			Longitude: offer.Destination.Lng,
			Latitude:  offer.Destination.Lat,
		})
		return nil
	})
	return err
}

// Remove drops an offer from the index.
func (s *OfferIndex) Remove(ctx context.Context, offerID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.originKey, offerID)
		pipe.ZRem(ctx, s.destKey, offerID)
		return nil
	})
	return err
}

// Nearby returns the IDs of offers whose origin lies within originRadius
// and whose destination lies within destRadius, nearest origin first.
// Radii are in meters.
func (s *OfferIndex) Nearby(ctx context.Context, origin, dest domain.Location, originRadius, destRadius float64) ([]string, error) {
	origins, err := s.client.GeoRadius(ctx, s.originKey, origin.Lng, origin.Lat, &redis.GeoRadiusQuery{
		Radius: originRadius,
		Unit:   "m",
		Sort:   "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(origins) == 0 {
		return nil, nil
	}

	dests, err := s.client.GeoRadius(ctx, s.destKey, dest.Lng, dest.Lat, &redis.GeoRadiusQuery{
		Radius: destRadius,
		Unit:   "m",
	}).Result()
	if err != nil {
		return nil, err
	}

	return intersect(origins, dests), nil
}

// Complete reports whether the completeness marker is present. The marker is
// lost together with the GEO sets when Redis loses its data.
func (s *OfferIndex) Complete(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, s.readyKey).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetComplete sets or clears the completeness marker.
func (s *OfferIndex) SetComplete(ctx context.Context, complete bool) error {
	if !complete {
		return s.client.Del(ctx, s.readyKey).Err()
	}
	return s.client.Set(ctx, s.readyKey, "1", 0).Err()
}

// intersect keeps the origin hits that are also destination hits, in origin
// order.
func intersect(origins, dests []redis.GeoLocation) []string {
	nearDest := make(map[string]struct{}, len(dests))
	for _, d := range dests {
		nearDest[d.Name] = struct{}{}
	}

	ids := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, ok := nearDest[o.Name]; ok {
			ids = append(ids, o.Name)
		}
	}
	return ids
}
