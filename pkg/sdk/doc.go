// Package obsoper is an embedded Go client for the obsoper grid service.
// It stores model grids in Redis (or in memory) and maps gridded model
// fields to observation locations without going through HTTP.
//
//	client, _ := obsoper.New(ctx, obsoper.WithRedis("localhost:6379", ""))
//	_, _ = client.Grids().Create(ctx, "orca025", lons, lats,
//	    obsoper.WithLayout(obsoper.LayoutTripolar), obsoper.WithHalo())
//	res, _ := client.Interpolate(ctx, "orca025", obsLons, obsLats, field)
//
// Missing values in fields and results are marked by Field.Mask.
package obsoper
