package anilist

import (
	"encoding/json"
	"fmt"
	"strings"
)

// mediaFields is the shared field list every query requests for a media
// object. Each operation's query template inlines it through the
// {mediaFields} placeholder so the operations cannot drift apart on what a
// media object contains.
const mediaFields = `id
title { romaji english native }
format
description
startDate { year month day }
endDate { year month day }
episodes
duration
countryOfOrigin
updatedAt
coverImage { large }
genres
synonyms
averageScore
popularity`

const queryGetLibraryEntries = `
query ($userName: String!) {
  MediaListCollection (userName: $userName, type: ANIME) {
    lists {
      entries {
        ...mediaListFragment
      }
    }
    user {
      id
      name
      mediaListOptions {
        scoreFormat
      }
    }
  }
}

fragment mediaListFragment on MediaList {
  id
  status
  score(format: POINT_100)
  progress
  repeat
  notes
  startedAt { year month day }
  completedAt { year month day }
  updatedAt
  media {
    ...mediaFragment
  }
}

fragment mediaFragment on Media {
  {mediaFields}
}`

const queryGetMetadataByID = `
query ($id: Int!) {
  Media (id: $id, type: ANIME) {
    {mediaFields}
  }
}`

const querySearchTitle = `
query ($query: String) {
  Page {
    media(search: $query, type: ANIME) {
      {mediaFields}
    }
  }
}`

// expandQuery substitutes the shared media field list into a query template.
func expandQuery(query string) string {
	return strings.ReplaceAll(query, "{mediaFields}", mediaFields)
}

// buildRequestBody assembles the GraphQL request document. Variables were
// already converted from their Request.Data string form to the types the
// schema expects.
func buildRequestBody(query string, variables map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query":     expandQuery(query),
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return body, nil
}
